package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una línea de orden de venta. La progresión es monótona:
// PENDING → PICKING → PICKED → SHIPPED → DELIVERED.
const (
	LinePending   = "PENDING"
	LinePicking   = "PICKING"
	LinePicked    = "PICKED"
	LineShipped   = "SHIPPED"
	LineDelivered = "DELIVERED"
)

// Términos de pago de la orden.
const (
	TermsOpenAccount = "OPEN_ACCOUNT"
	TermsPrepaid     = "PREPAID"
	TermsCOD         = "COD"
)

// Estado de pago de la orden.
const (
	PaymentUnpaid  = "UNPAID"
	PaymentPartial = "PARTIAL"
	PaymentPaid    = "PAID"
)

// lineTransitions: tabla de transiciones permitidas por línea (solo hacia adelante).
var lineTransitions = map[string]string{
	LinePending: LinePicking,
	LinePicking: LinePicked,
	LinePicked:  LineShipped,
	LineShipped: LineDelivered,
}

// lineRank ordena los estados para validar monotonicidad.
var lineRank = map[string]int{
	LinePending:   0,
	LinePicking:   1,
	LinePicked:    2,
	LineShipped:   3,
	LineDelivered: 4,
}

// SalesOrder es una orden de venta B2B. Es dueña de sus líneas; cada línea
// guarda referencias débiles (tipo + id) a sus documentos descendientes.
type SalesOrder struct {
	ID             string
	CompanyID      string
	CustomerID     string
	Location       string // ubicación preferida de despacho
	PolicyOverride string // vacío = sin override; ver fulfillment.Policy
	PaymentTerms   string // OPEN_ACCOUNT | PREPAID | COD
	PaymentStatus  string // UNPAID | PARTIAL | PAID
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	Lines          []*SalesOrderLine
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SalesOrderLine es una línea de la orden. QuantityBackorder registra el faltante
// pendiente de suministro futuro; Links referencia documentos descendientes sin poseerlos.
type SalesOrderLine struct {
	ID                string
	OrderID           string
	LineNumber        int
	ProductID         string
	QuantityOrdered   decimal.Decimal
	QuantityBackorder decimal.Decimal
	Status            string
	Links             []DocumentRef
	UpdatedAt         time.Time
}

// AdvanceTo mueve la línea al estado destino validando la tabla de transiciones.
// Avanzar a un estado igual o anterior es ErrInvalidTransition del caller;
// aquí se devuelve false y el caller decide.
func (l *SalesOrderLine) AdvanceTo(status string) bool {
	next, ok := lineTransitions[l.Status]
	if !ok || next != status {
		return false
	}
	l.Status = status
	return true
}

// StatusAtLeast indica si la línea ya alcanzó (o pasó) el estado dado.
func (l *SalesOrderLine) StatusAtLeast(status string) bool {
	cur, ok1 := lineRank[l.Status]
	want, ok2 := lineRank[status]
	return ok1 && ok2 && cur >= want
}

// LinkDocument agrega una referencia débil a un documento descendiente.
func (l *SalesOrderLine) LinkDocument(refType, refID string) {
	l.Links = append(l.Links, DocumentRef{Type: refType, ID: refID})
}

// HasLink indica si la línea ya referencia un documento del tipo dado.
func (l *SalesOrderLine) HasLink(refType string) bool {
	for _, ref := range l.Links {
		if ref.Type == refType {
			return true
		}
	}
	return false
}

// RequiresPaymentBeforeFulfillment indica si los términos exigen pago antes de despachar.
func (o *SalesOrder) RequiresPaymentBeforeFulfillment() bool {
	return o.PaymentTerms == TermsPrepaid || o.PaymentTerms == TermsCOD
}
