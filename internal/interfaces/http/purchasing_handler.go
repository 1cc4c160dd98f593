package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/dto"
	"github.com/tu-usuario/fulfillment-pro/internal/application/purchasing"
)

// PurchasingHandler maneja órdenes de compra y recepciones (protegido).
type PurchasingHandler struct {
	uc *purchasing.UseCase
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(uc *purchasing.UseCase) *PurchasingHandler {
	return &PurchasingHandler{uc: uc}
}

// CreatePurchaseOrderRequest cuerpo para una OC directa en borrador.
type CreatePurchaseOrderRequest struct {
	SupplierID string                    `json:"supplier_id"`
	Location   string                    `json:"location"`
	Lines      []PurchaseOrderLineCreate `json:"lines"`
}

// PurchaseOrderLineCreate línea de la OC a crear.
type PurchaseOrderLineCreate struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Create crea una OC directa en DRAFT. POST /api/purchase-orders
func (h *PurchasingHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := purchasing.CreateInput{
		CompanyID:  companyID,
		SupplierID: in.SupplierID,
		Location:   in.Location,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, purchasing.CreateLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	po, err := h.uc.Create(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPurchaseOrder(po))
}

// Get devuelve una OC con sus líneas. GET /api/purchase-orders/:id
func (h *PurchasingHandler) Get(c *fiber.Ctx) error {
	po, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Submit pasa la OC a PENDING_APPROVAL. POST /api/purchase-orders/:id/submit
func (h *PurchasingHandler) Submit(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Submit, "orden enviada a aprobación")
}

// Approve aprueba y envía la OC (sube OnOrder). POST /api/purchase-orders/:id/approve
func (h *PurchasingHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Approve, "orden aprobada y enviada")
}

// Acknowledge registra el acuse del proveedor. POST /api/purchase-orders/:id/acknowledge
func (h *PurchasingHandler) Acknowledge(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Acknowledge, "acuse registrado")
}

// Cancel cancela la OC (libera OnOrder pendiente). POST /api/purchase-orders/:id/cancel
func (h *PurchasingHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Cancel, "orden cancelada")
}

// Close cierra una OC recibida. POST /api/purchase-orders/:id/close
func (h *PurchasingHandler) Close(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Close, "orden cerrada")
}

func (h *PurchasingHandler) transition(c *fiber.Ctx, op func(ctx context.Context, poID string) error, msg string) error {
	if err := op(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": msg})
}

// ReceiveGoods registra un GRV contra la OC. POST /api/purchase-orders/:id/receipts
func (h *PurchasingHandler) ReceiveGoods(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ReceiveGoodsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	input := purchasing.ReceiveGoodsInput{
		PurchaseOrderID: c.Params("id"),
		Actor:           actor,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, purchasing.ReceiveGoodsLine{
			PurchaseOrderLineID: l.PurchaseOrderLineID,
			QuantityReceived:    l.QuantityReceived,
			QuantityRejected:    l.QuantityRejected,
			UnitCost:            l.UnitCost,
		})
	}
	receipt, err := h.uc.ReceiveGoods(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromGoodsReceipt(receipt))
}
