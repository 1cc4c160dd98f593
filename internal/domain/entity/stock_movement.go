package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock. La cantidad siempre es magnitud positiva;
// la dirección la codifica el tipo.
const (
	MovementReceipt        = "RECEIPT"
	MovementIssue          = "ISSUE"
	MovementAdjustmentIn   = "ADJUSTMENT_IN"
	MovementAdjustmentOut  = "ADJUSTMENT_OUT"
	MovementManufactureIn  = "MANUFACTURE_IN"
	MovementManufactureOut = "MANUFACTURE_OUT"
	MovementTransferIn     = "TRANSFER_IN"
	MovementTransferOut    = "TRANSFER_OUT"
)

// Tipos de referencia de un movimiento (documento que lo originó).
const (
	RefGoodsReceipt    = "GOODS_RECEIPT"
	RefPickingSlip     = "PICKING_SLIP"
	RefTransferRequest = "TRANSFER_REQUEST"
	RefJobCard         = "JOB_CARD"
	RefAdjustment      = "ADJUSTMENT"
	RefOrderLine       = "ORDER_LINE"
	RefPurchaseOrder   = "PURCHASE_ORDER"
)

// StockMovement es una entrada inmutable del libro de stock (append-only).
// Invariante: la suma con signo de todos los movimientos de una clave
// reconstruye exactamente su OnHand.
type StockMovement struct {
	ID            string
	ProductID     string
	Location      string
	Type          string
	Quantity      decimal.Decimal // magnitud positiva
	ReferenceType string
	ReferenceID   string
	Actor         string
	CreatedAt     time.Time
}

// IsInbound indica si el tipo suma a OnHand.
func IsInbound(movementType string) bool {
	switch movementType {
	case MovementReceipt, MovementAdjustmentIn, MovementManufactureIn, MovementTransferIn:
		return true
	}
	return false
}

// IsValidMovementType valida el tipo contra el catálogo.
func IsValidMovementType(movementType string) bool {
	switch movementType {
	case MovementReceipt, MovementIssue, MovementAdjustmentIn, MovementAdjustmentOut,
		MovementManufactureIn, MovementManufactureOut, MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// SignedQuantity devuelve la cantidad con el signo que dicta el tipo.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if IsInbound(m.Type) {
		return m.Quantity
	}
	return m.Quantity.Neg()
}
