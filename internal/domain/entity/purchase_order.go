package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de compra. Máquina de estados explícita:
// DRAFT → PENDING_APPROVAL → SENT → ACKNOWLEDGED → (PARTIALLY_RECEIVED) → RECEIVED → CLOSED,
// con CANCELLED alcanzable desde cualquier estado anterior a RECEIVED.
const (
	POStatusDraft             = "DRAFT"
	POStatusPendingApproval   = "PENDING_APPROVAL"
	POStatusSent              = "SENT"
	POStatusAcknowledged      = "ACKNOWLEDGED"
	POStatusPartiallyReceived = "PARTIALLY_RECEIVED"
	POStatusReceived          = "RECEIVED"
	POStatusClosed            = "CLOSED"
	POStatusCancelled         = "CANCELLED"
)

// poTransitions: tabla de transiciones permitidas.
var poTransitions = map[string][]string{
	POStatusDraft:             {POStatusPendingApproval, POStatusCancelled},
	POStatusPendingApproval:   {POStatusSent, POStatusCancelled},
	POStatusSent:              {POStatusAcknowledged, POStatusPartiallyReceived, POStatusReceived, POStatusCancelled},
	POStatusAcknowledged:      {POStatusPartiallyReceived, POStatusReceived, POStatusCancelled},
	POStatusPartiallyReceived: {POStatusPartiallyReceived, POStatusReceived, POStatusCancelled},
	POStatusReceived:          {POStatusClosed},
	POStatusClosed:            {},
	POStatusCancelled:         {},
}

// PurchaseOrder es una orden de compra a proveedor.
type PurchaseOrder struct {
	ID         string
	CompanyID  string
	SupplierID string
	Location   string // ubicación de recepción
	Status     string
	Lines      []*PurchaseOrderLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PurchaseOrderLine lleva lo pedido y lo recibido. Cuando la crea el ejecutor
// de planes, SourceType/SourceID la vinculan a la línea de orden de venta origen.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	LineNumber       int
	ProductID        string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	SourceType       string // ORDER_LINE cuando nace de orquestación; vacío si es compra directa
	SourceID         string
}

// CanTransition consulta la tabla de transiciones.
func (p *PurchaseOrder) CanTransition(to string) bool {
	for _, allowed := range poTransitions[p.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionTo aplica la transición si la tabla la permite.
func (p *PurchaseOrder) TransitionTo(to string) bool {
	if !p.CanTransition(to) {
		return false
	}
	p.Status = to
	return true
}

// ReceiptStatus calcula el estado de recepción según las líneas:
// RECEIVED si todas cubiertas, PARTIALLY_RECEIVED si alguna recibió algo.
func (p *PurchaseOrder) ReceiptStatus() string {
	allCovered := true
	anyReceived := false
	for _, line := range p.Lines {
		if line.QuantityReceived.GreaterThan(decimal.Zero) {
			anyReceived = true
		}
		if line.QuantityReceived.LessThan(line.QuantityOrdered) {
			allCovered = false
		}
	}
	switch {
	case allCovered:
		return POStatusReceived
	case anyReceived:
		return POStatusPartiallyReceived
	default:
		return p.Status
	}
}

// OutstandingQuantity devuelve lo aún no recibido de una línea (piso cero).
func (l *PurchaseOrderLine) OutstandingQuantity() decimal.Decimal {
	out := l.QuantityOrdered.Sub(l.QuantityReceived)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
