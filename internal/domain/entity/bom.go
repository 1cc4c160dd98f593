package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BOM es la lista de materiales de un ensamble, provista por el catálogo.
type BOM struct {
	ProductID string // producto de salida
	Lines     []*BOMLine
	UpdatedAt time.Time
}

// BOMLine indica cuánto componente consume una unidad del ensamble.
type BOMLine struct {
	ComponentID string
	QuantityPer decimal.Decimal
}

// Snapshot congela los requerimientos para fabricar outputQty unidades.
// Los job cards consumen según este snapshot aunque el BOM vivo cambie después.
func (b *BOM) Snapshot(outputQty decimal.Decimal) []*JobComponent {
	components := make([]*JobComponent, 0, len(b.Lines))
	for _, line := range b.Lines {
		components = append(components, &JobComponent{
			ComponentID: line.ComponentID,
			Quantity:    line.QuantityPer.Mul(outputQty),
		})
	}
	return components
}
