package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel es la vista materializada del stock de un producto en una ubicación.
// Clave única (ProductID, Location). Nunca se escribe directamente: OnHand se deriva
// de los movimientos aplicados y Reserved de las operaciones de reserva.
// OnOrder sube al enviar una orden de compra y baja con cada RECEIPT.
type StockLevel struct {
	ProductID string
	Location  string
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	OnOrder   decimal.Decimal
	UpdatedAt time.Time
}

// NewStockLevel crea un nivel vacío para la clave (producto, ubicación).
func NewStockLevel(productID, location string) *StockLevel {
	return &StockLevel{
		ProductID: productID,
		Location:  location,
		OnHand:    decimal.Zero,
		Reserved:  decimal.Zero,
		OnOrder:   decimal.Zero,
	}
}

// Available devuelve la cantidad vendible ahora: OnHand - Reserved.
// Invariante: nunca negativa tras una operación confirmada.
func (s *StockLevel) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Reserved)
}
