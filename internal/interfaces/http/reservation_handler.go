package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/fulfillment-pro/internal/application/dto"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
)

// ReservationHandler maneja el ciclo de vida de reservas (protegido).
type ReservationHandler struct {
	uc *reservation.UseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Reserve crea una reserva SOFT o HARD. POST /api/reservations
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.uc.Reserve(c.Context(), reservation.ReserveInput{
		Kind:       in.Kind,
		ProductID:  in.ProductID,
		Location:   in.Location,
		Quantity:   in.Quantity,
		SourceType: in.SourceType,
		SourceID:   in.SourceID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromReservation(res))
}

// Get devuelve una reserva. GET /api/reservations/:id
func (h *ReservationHandler) Get(c *fiber.Ctx) error {
	res, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.FromReservation(res))
}

// Release libera una reserva (idempotente). POST /api/reservations/:id/release
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if err := h.uc.Release(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva liberada"})
}

// Promote promueve una reserva SOFT a HARD re-validando disponibilidad.
// POST /api/reservations/:id/promote
func (h *ReservationHandler) Promote(c *fiber.Ctx) error {
	if err := h.uc.Promote(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva promovida a HARD"})
}

// Consume consume una reserva activa. POST /api/reservations/:id/consume
func (h *ReservationHandler) Consume(c *fiber.Ctx) error {
	if err := h.uc.Consume(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "reserva consumida"})
}
