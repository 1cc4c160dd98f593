package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// BOMRepository define el puerto de listas de materiales (snapshots del catálogo).
type BOMRepository interface {
	// GetByProduct devuelve el BOM vigente del ensamble, o nil si no tiene.
	GetByProduct(productID string) (*entity.BOM, error)
}
