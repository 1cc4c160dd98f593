package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fulfillment-pro/internal/application/dto"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
)

// respondError mapea la taxonomía de errores del dominio a códigos HTTP.
// Los errores no clasificados salen como 500 sin filtrar detalles internos.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser positiva"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrPlanStale):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PLAN_STALE", Message: "el plan quedó desactualizado; regenerar y reintentar"})
	case errors.Is(err, domain.ErrPlanHeld):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PLAN_HELD", Message: "plan retenido; requiere decisión antes de ejecutar"})
	case errors.Is(err, domain.ErrDocumentLinkConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LINK_CONFLICT", Message: "la línea ya fue cumplida por otro documento"})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: "transición de estado no permitida"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto con el estado actual del recurso"})
	case errors.Is(err, domain.ErrTransactionAborted):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TX_ABORTED", Message: "transacción abortada; reintentar"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
