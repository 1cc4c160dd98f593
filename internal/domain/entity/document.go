package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentRef es una referencia débil (no poseedora) a otro documento.
// El grafo de documentos se resuelve por lookup en repositorios, nunca
// con punteros vivos, para evitar ciclos de propiedad.
type DocumentRef struct {
	Type string
	ID   string
}

// Estados de documentos descendientes.
const (
	DocumentOpen      = "OPEN"
	DocumentConfirmed = "CONFIRMED"
	DocumentReceived  = "RECEIVED"
	DocumentCompleted = "COMPLETED"
	DocumentCancelled = "CANCELLED"
)

// PickingSlip agrupa las líneas a alistar de una orden en una ubicación.
type PickingSlip struct {
	ID        string
	OrderID   string
	Location  string
	Status    string // OPEN | CONFIRMED | CANCELLED
	Lines     []*PickingSlipLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PickingSlipLine referencia la línea de orden que alista y la reserva HARD que la respalda.
type PickingSlipLine struct {
	ID            string
	PickingSlipID string
	OrderLineID   string
	ProductID     string
	Quantity      decimal.Decimal
	ReservationID string
}

// TransferRequest pide mover stock entre ubicaciones para cubrir una línea de orden.
// La reserva HARD vive en la ubicación origen hasta consumirse al recibir.
type TransferRequest struct {
	ID            string
	OrderLineID   string
	ProductID     string
	FromLocation  string
	ToLocation    string
	Quantity      decimal.Decimal
	ReservationID string
	Status        string // OPEN | RECEIVED | CANCELLED
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JobCard ordena fabricar un ensamble para una línea de orden.
// Components es el snapshot del BOM tomado al crear el job: completar el job
// consume según este snapshot, no según el BOM vivo.
type JobCard struct {
	ID          string
	OrderLineID string
	ProductID   string // producto de salida
	Location    string
	Quantity    decimal.Decimal
	Status      string // OPEN | COMPLETED | CANCELLED
	Components  []*JobComponent
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobComponent es un componente del snapshot, con su reserva HARD asociada.
type JobComponent struct {
	ComponentID   string
	Quantity      decimal.Decimal // cantidad total a consumir
	ReservationID string
}
