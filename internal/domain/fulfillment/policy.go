package fulfillment

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// Policy es la política de despacho efectiva de una orden.
type Policy string

const (
	// ShipPartial despacha lo disponible y deja backorder del resto (default global).
	ShipPartial Policy = "SHIP_PARTIAL"
	// ShipComplete retiene el plan entero si cualquier línea quedaría en backorder.
	ShipComplete Policy = "SHIP_COMPLETE"
	// SalesDecision es un resultado terminal válido: el planificador marca la
	// ambigüedad para decisión humana en vez de auto-resolver.
	SalesDecision Policy = "SALES_DECISION"
)

// IsValid valida la política contra el catálogo.
func (p Policy) IsValid() bool {
	switch p {
	case ShipPartial, ShipComplete, SalesDecision:
		return true
	}
	return false
}

// ResolvePolicy calcula la política efectiva de la orden (función pura).
// Precedencia: override de la orden > default de la empresa > default global SHIP_PARTIAL.
func ResolvePolicy(order *entity.SalesOrder, companyDefault Policy) Policy {
	if override := Policy(order.PolicyOverride); override.IsValid() {
		return override
	}
	if companyDefault.IsValid() {
		return companyDefault
	}
	return ShipPartial
}
