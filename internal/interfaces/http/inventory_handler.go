package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fulfillment-pro/internal/application/dto"
	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
)

// InventoryHandler maneja el libro de stock y la vista materializada (protegido).
type InventoryHandler struct {
	apply *ledger.ApplyMovementUseCase
	query *ledger.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(apply *ledger.ApplyMovementUseCase, query *ledger.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{apply: apply, query: query}
}

// ApplyMovement registra un movimiento en el libro. POST /api/inventory/movements
func (h *InventoryHandler) ApplyMovement(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	level, err := h.apply.ApplyMovement(c.Context(), ledger.ApplyMovementInput{
		Type:          in.Type,
		ProductID:     in.ProductID,
		Location:      in.Location,
		Quantity:      in.Quantity,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		Actor:         actor,
		UnitCost:      in.UnitCost,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStockLevel(level))
}

// GetStockLevel devuelve el nivel de una clave. GET /api/inventory/stock/:productId/:location
func (h *InventoryHandler) GetStockLevel(c *fiber.Ctx) error {
	level, err := h.query.GetLevel(c.Context(), c.Params("productId"), c.Params("location"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromStockLevel(level))
}

// ListStockByProduct devuelve los niveles de un producto en todas las ubicaciones.
// GET /api/inventory/stock/:productId
func (h *InventoryHandler) ListStockByProduct(c *fiber.Ctx) error {
	levels, err := h.query.ListLevelsByProduct(c.Context(), c.Params("productId"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.FromStockLevel(l))
	}
	return c.JSON(fiber.Map{"total": len(out), "levels": out})
}

// ListMovements lista el libro de una ubicación. GET /api/inventory/movements?location=&from=&to=
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	location := c.Query("location")
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválida"})
	}
	page.DefaultPage()

	var from, to *time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "from: fecha RFC3339"})
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "to: fecha RFC3339"})
		}
		to = &t
	}

	movements, err := h.query.ListMovementsByLocation(c.Context(), location, from, to, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.FromMovement(m))
	}
	return c.JSON(fiber.Map{"total": len(out), "movements": out})
}

// ReplayLevel reconstruye OnHand desde el libro (auditoría de consistencia).
// GET /api/inventory/stock/:productId/:location/replay
func (h *InventoryHandler) ReplayLevel(c *fiber.Ctx) error {
	onHand, err := h.apply.ReplayLevel(c.Context(), c.Params("productId"), c.Params("location"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"product_id": c.Params("productId"),
		"location":   c.Params("location"),
		"on_hand":    onHand,
	})
}
