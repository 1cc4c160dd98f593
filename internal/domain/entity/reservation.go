package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clase de reserva: SOFT es una señal de demanda (no reduce Available);
// HARD compromete stock y sí reduce Available.
const (
	ReservationSoft = "SOFT"
	ReservationHard = "HARD"
)

// Ciclo de vida de una reserva.
const (
	ReservationActive   = "ACTIVE"
	ReservationReleased = "RELEASED"
	ReservationConsumed = "CONSUMED"
)

// Reservation es una retención de stock contra la disponibilidad de una clave
// (producto, ubicación), vinculada por referencia débil a su documento origen.
// Se crea SOFT en cotización o HARD en checkout; se promueve SOFT→HARD,
// se libera al cancelar y se consume junto con el movimiento de salida que respalda.
type Reservation struct {
	ID         string
	Kind       string // SOFT | HARD
	ProductID  string
	Location   string
	Quantity   decimal.Decimal
	SourceType string // tipo de documento origen (ORDER_LINE, JOB_CARD, ...)
	SourceID   string
	Status     string // ACTIVE | RELEASED | CONSUMED
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive indica si la reserva sigue vigente.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationActive
}

// Holds indica si la reserva descuenta disponibilidad (HARD y vigente).
func (r *Reservation) Holds() bool {
	return r.Kind == ReservationHard && r.Status == ReservationActive
}
