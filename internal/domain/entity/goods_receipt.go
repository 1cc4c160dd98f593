package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoodsReceipt (GRV) reconcilia una entrega contra su orden de compra.
type GoodsReceipt struct {
	ID              string
	PurchaseOrderID string
	Location        string
	Actor           string
	Lines           []*GoodsReceiptLine
	CreatedAt       time.Time
}

// GoodsReceiptLine registra lo esperado, lo recibido y lo rechazado de una línea de OC.
// El sobre-recibo (received + rejected > expected) se marca, no se bloquea.
type GoodsReceiptLine struct {
	ID                  string
	GoodsReceiptID      string
	PurchaseOrderLineID string
	ProductID           string
	QuantityExpected    decimal.Decimal
	QuantityReceived    decimal.Decimal
	QuantityRejected    decimal.Decimal
	OverReceipt         bool
}

// FlagOverReceipt marca la línea si recibido+rechazado excede lo esperado.
func (l *GoodsReceiptLine) FlagOverReceipt() {
	l.OverReceipt = l.QuantityReceived.Add(l.QuantityRejected).GreaterThan(l.QuantityExpected)
}
