package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// PurchaseOrderRepository define el puerto de órdenes de compra.
type PurchaseOrderRepository interface {
	Create(po *entity.PurchaseOrder) error
	GetByID(id string) (*entity.PurchaseOrder, error)
	GetByIDForUpdate(id string) (*entity.PurchaseOrder, error)
	Update(po *entity.PurchaseOrder) error
	UpdateLine(line *entity.PurchaseOrderLine) error
	// ListOpenBySourceLine devuelve líneas de OC aún no recibidas vinculadas a una línea de orden.
	ListOpenBySourceLine(orderLineID string) ([]*entity.PurchaseOrderLine, error)
}
