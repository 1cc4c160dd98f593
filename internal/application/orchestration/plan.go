package orchestration

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
)

// Acciones de abastecimiento que puede proponer el planificador por línea.
const (
	ActionPick        = "PICK"
	ActionTransfer    = "TRANSFER"
	ActionManufacture = "MANUFACTURE"
	ActionPurchase    = "PURCHASE"
)

// Plan es la propuesta de abastecimiento de una orden. Es efímero: nunca se
// persiste; solo existe entre el preview y la ejecución. Held marca que el plan
// quedó retenido completo (SHIP_COMPLETE con faltantes); NeedsSalesDecision que
// la política exige decisión humana antes de ejecutar.
type Plan struct {
	OrderID            string
	Policy             fulfillment.Policy
	Held               bool
	NeedsSalesDecision bool
	GeneratedAt        time.Time
	Lines              []*PlanLine
}

// PlanLine es la decisión para (una porción de) una línea de orden.
// AvailableSnapshot guarda la disponibilidad vista al planear en SourceLocation;
// el ejecutor la re-valida antes de confirmar.
type PlanLine struct {
	OrderLineID       string
	Action            string
	SourceLocation    string
	Quantity          decimal.Decimal
	BackorderQuantity decimal.Decimal
	Held              bool
	AvailableSnapshot decimal.Decimal
}

// ExecutionResult resume lo creado al ejecutar un plan.
type ExecutionResult struct {
	OrderID          string
	CreatedDocuments []entity.DocumentRef
	Lines            []LineOutcome
}

// LineOutcome es el resultado por línea de plan ejecutada.
type LineOutcome struct {
	OrderLineID       string
	Action            string
	DocumentType      string
	DocumentID        string
	Quantity          decimal.Decimal
	BackorderQuantity decimal.Decimal
}

// Config parámetros de orquestación de la empresa.
type Config struct {
	// CompanyDefaultPolicy aplica cuando la orden no trae override.
	CompanyDefaultPolicy fulfillment.Policy
	// AllowCrossLocation habilita abastecer faltantes con traslados entre ubicaciones.
	AllowCrossLocation bool
}
