package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// StockLevelRepository define el puerto para la vista materializada de stock
// por (producto, ubicación). Las escrituras siempre ocurren dentro de una transacción.
type StockLevelRepository interface {
	Get(productID, location string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE): serializa
	// todas las escrituras contra la misma clave.
	GetForUpdate(productID, location string) (*entity.StockLevel, error)
	Upsert(level *entity.StockLevel) error
	// ListByProduct devuelve los niveles del producto en todas las ubicaciones.
	ListByProduct(productID string) ([]*entity.StockLevel, error)
}
