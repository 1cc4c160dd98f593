package repository

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// ProductRepository define el puerto de productos del catálogo.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	// UpdateCost actualiza el costo promedio ponderado (dentro de la tx del RECEIPT).
	UpdateCost(id string, cost decimal.Decimal) error
}
