package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// TransferRequestRepository define el puerto de solicitudes de traslado.
type TransferRequestRepository interface {
	Create(transfer *entity.TransferRequest) error
	GetByID(id string) (*entity.TransferRequest, error)
	GetByIDForUpdate(id string) (*entity.TransferRequest, error)
	Update(transfer *entity.TransferRequest) error
	ListOpenByOrderLine(orderLineID string) ([]*entity.TransferRequest, error)
}
