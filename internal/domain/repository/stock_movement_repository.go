package repository

import (
	"time"

	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de stock.
// Append-only: sin Update ni Delete, nunca.
type StockMovementRepository interface {
	Append(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// ListByKey devuelve los movimientos de una clave en orden estricto de inserción.
	ListByKey(productID, location string) ([]*entity.StockMovement, error)
	ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error)
	ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
