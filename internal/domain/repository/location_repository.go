package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// LocationRepository define el puerto de ubicaciones (bodegas/sucursales).
type LocationRepository interface {
	GetByCode(code string) (*entity.Location, error)
	List() ([]*entity.Location, error)
}
