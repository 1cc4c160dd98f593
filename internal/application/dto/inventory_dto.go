package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// ApplyMovementRequest entrada para registrar un movimiento en el libro de stock.
// UnitCost solo aplica a RECEIPT: recalcula el costo promedio del producto.
type ApplyMovementRequest struct {
	Type          string           `json:"type"`
	ProductID     string           `json:"product_id"`
	Location      string           `json:"location"`
	Quantity      decimal.Decimal  `json:"quantity"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   string           `json:"reference_id"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
}

// StockLevelResponse nivel de stock de una clave (producto, ubicación).
type StockLevelResponse struct {
	ProductID string          `json:"product_id"`
	Location  string          `json:"location"`
	OnHand    decimal.Decimal `json:"on_hand"`
	Reserved  decimal.Decimal `json:"reserved"`
	OnOrder   decimal.Decimal `json:"on_order"`
	Available decimal.Decimal `json:"available"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromStockLevel arma la respuesta desde la entidad (Available es derivado).
func FromStockLevel(l *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID: l.ProductID,
		Location:  l.Location,
		OnHand:    l.OnHand,
		Reserved:  l.Reserved,
		OnOrder:   l.OnOrder,
		Available: l.Available(),
		UpdatedAt: l.UpdatedAt,
	}
}

// MovementResponse entrada del libro de stock.
type MovementResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	Location      string          `json:"location"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Actor         string          `json:"actor"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FromMovement arma la respuesta desde la entidad.
func FromMovement(m *entity.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Location:      m.Location,
		Type:          m.Type,
		Quantity:      m.Quantity,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Actor:         m.Actor,
		CreatedAt:     m.CreatedAt,
	}
}

// ReserveRequest entrada para crear una reserva SOFT o HARD.
type ReserveRequest struct {
	Kind       string          `json:"kind"`
	ProductID  string          `json:"product_id"`
	Location   string          `json:"location"`
	Quantity   decimal.Decimal `json:"quantity"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
}

// ReservationResponse estado de una reserva.
type ReservationResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	ProductID  string          `json:"product_id"`
	Location   string          `json:"location"`
	Quantity   decimal.Decimal `json:"quantity"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FromReservation arma la respuesta desde la entidad.
func FromReservation(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		Kind:       r.Kind,
		ProductID:  r.ProductID,
		Location:   r.Location,
		Quantity:   r.Quantity,
		SourceType: r.SourceType,
		SourceID:   r.SourceID,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
