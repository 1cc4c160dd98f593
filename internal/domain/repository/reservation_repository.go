package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// ReservationRepository define el puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(reservation *entity.Reservation) error
	GetByID(id string) (*entity.Reservation, error)
	// GetForUpdate bloquea la fila de la reserva (release/promote/consume concurrentes).
	GetForUpdate(id string) (*entity.Reservation, error)
	Update(reservation *entity.Reservation) error
	ListActiveByKey(productID, location string) ([]*entity.Reservation, error)
	ListBySource(sourceType, sourceID string) ([]*entity.Reservation, error)
}
