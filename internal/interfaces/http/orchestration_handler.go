package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fulfillment-pro/internal/application/dto"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/propagation"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
)

// OrchestrationHandler maneja el ciclo plan → ejecución y la propagación de
// estados entre documentos (protegido).
type OrchestrationHandler struct {
	generator   *orchestration.PlanGenerator
	executor    *orchestration.Executor
	propagation *propagation.UseCase
}

// NewOrchestrationHandler construye el handler.
func NewOrchestrationHandler(g *orchestration.PlanGenerator, e *orchestration.Executor, p *propagation.UseCase) *OrchestrationHandler {
	return &OrchestrationHandler{generator: g, executor: e, propagation: p}
}

// GeneratePlan genera el preview del plan de una orden (solo lectura, repetible).
// POST /api/orders/:id/plan
func (h *OrchestrationHandler) GeneratePlan(c *fiber.Ctx) error {
	var in dto.GeneratePlanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	var override *fulfillment.Policy
	if in.PolicyOverride != "" {
		p := fulfillment.Policy(in.PolicyOverride)
		if !p.IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "policy_override inválido"})
		}
		override = &p
	}
	plan, err := h.generator.GeneratePlan(c.Context(), c.Params("id"), override)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromPlan(plan))
}

// ExecutePlan ejecuta el plan recibido del preview en una sola transacción.
// POST /api/orders/:id/execute
func (h *OrchestrationHandler) ExecutePlan(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PlanDTO
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.OrderID != c.Params("id") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el plan no corresponde a la orden"})
	}
	result, err := h.executor.ExecutePlan(c.Context(), in.ToPlan(), actor)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromExecutionResult(result))
}

// RecordPayment registra un pago. Si el pago completa una orden PREPAID/COD,
// dispara el cumplimiento automático y devuelve lo ejecutado.
// POST /api/orders/:id/payments
func (h *OrchestrationHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.propagation.RecordPayment(c.Context(), c.Params("id"), in.Amount)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.RecordPaymentResponse{OrderID: c.Params("id")}
	if result != nil {
		exec := dto.FromExecutionResult(result)
		out.Execution = &exec
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ConfirmPick confirma una lista de alistamiento: consume reservas, registra
// ISSUE y avanza líneas a PICKED. POST /api/picking-slips/:id/confirm
func (h *OrchestrationHandler) ConfirmPick(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if err := h.propagation.ConfirmPick(c.Context(), c.Params("id"), actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "alistamiento confirmado"})
}

// ReceiveTransfer registra la llegada de un traslado (salida en origen, entrada
// en destino, una sola transacción). POST /api/transfers/:id/receive
func (h *OrchestrationHandler) ReceiveTransfer(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if err := h.propagation.ReceiveTransfer(c.Context(), c.Params("id"), actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "traslado recibido"})
}

// CompleteJob completa una orden de fabricación consumiendo el snapshot del BOM.
// POST /api/jobs/:id/complete
func (h *OrchestrationHandler) CompleteJob(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if err := h.propagation.CompleteJob(c.Context(), c.Params("id"), actor); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "fabricación completada"})
}

// ShipOrder avanza las líneas PICKED de la orden a SHIPPED. POST /api/orders/:id/ship
func (h *OrchestrationHandler) ShipOrder(c *fiber.Ctx) error {
	if err := h.propagation.ShipOrder(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden despachada"})
}

// DeliverOrder avanza las líneas SHIPPED de la orden a DELIVERED. POST /api/orders/:id/deliver
func (h *OrchestrationHandler) DeliverOrder(c *fiber.Ctx) error {
	if err := h.propagation.DeliverOrder(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "orden entregada"})
}
