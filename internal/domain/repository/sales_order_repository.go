package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// SalesOrderRepository define el puerto de órdenes de venta y sus líneas.
type SalesOrderRepository interface {
	Create(order *entity.SalesOrder) error
	GetByID(id string) (*entity.SalesOrder, error)
	// GetByIDForUpdate bloquea la orden y sus líneas (ejecución de planes, pagos).
	GetByIDForUpdate(id string) (*entity.SalesOrder, error)
	Update(order *entity.SalesOrder) error
	UpdateLine(line *entity.SalesOrderLine) error
	GetLineByID(lineID string) (*entity.SalesOrderLine, error)
}
