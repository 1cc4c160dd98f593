package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// PickingSlipRepository define el puerto de listas de alistamiento.
type PickingSlipRepository interface {
	Create(slip *entity.PickingSlip) error
	GetByID(id string) (*entity.PickingSlip, error)
	GetByIDForUpdate(id string) (*entity.PickingSlip, error)
	Update(slip *entity.PickingSlip) error
	ListOpenByOrderLine(orderLineID string) ([]*entity.PickingSlipLine, error)
}
