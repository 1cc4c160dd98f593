package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo de suministros (multi-ubicación).
// Cost es promedio ponderado calculado desde los RECEIPT; el stock vive en StockLevel.
// IsAssembly marca productos fabricables con lista de materiales (BOM).
type Product struct {
	ID                  string
	CompanyID           string
	SKU                 string // código único por empresa
	Name                string
	Description         string
	Price               decimal.Decimal // precio de venta
	Cost                decimal.Decimal // costo promedio ponderado (inicia en 0)
	UnitMeasure         string
	IsAssembly          bool
	PreferredSupplierID string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
