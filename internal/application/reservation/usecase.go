package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// UseCase es el motor de reservas: retenciones SOFT (señal de demanda) y HARD
// (compromiso que descuenta Available) sobre los niveles del libro de stock.
type UseCase struct {
	txRunner uow.TxRunner
	metrics  *metrics.Metrics
}

// NewUseCase construye el motor de reservas.
func NewUseCase(txRunner uow.TxRunner, m *metrics.Metrics) *UseCase {
	return &UseCase{txRunner: txRunner, metrics: m}
}

// ReserveInput entrada para crear una reserva.
type ReserveInput struct {
	Kind       string // SOFT | HARD
	ProductID  string
	Location   string
	Quantity   decimal.Decimal
	SourceType string
	SourceID   string
}

// Reserve crea una reserva. HARD falla con ErrInsufficientStock si la cantidad
// excede el Available actual; SOFT nunca falla por stock (es solo consultiva).
func (uc *UseCase) Reserve(ctx context.Context, input ReserveInput) (*entity.Reservation, error) {
	if input.Kind != entity.ReservationSoft && input.Kind != entity.ReservationHard {
		return nil, domain.ErrInvalidInput
	}
	if input.ProductID == "" || input.Location == "" {
		return nil, domain.ErrInvalidInput
	}
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	var res *entity.Reservation
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		res, err = uc.ReserveInTx(r, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.ReservationsCreated.WithLabelValues(input.Kind).Inc()
	}
	return res, nil
}

// ReserveInTx crea la reserva dentro de la transacción del caller (ejecutor).
func (uc *UseCase) ReserveInTx(r *uow.Repos, input ReserveInput) (*entity.Reservation, error) {
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	now := time.Now()
	if input.Kind == entity.ReservationHard {
		level, err := r.Levels.GetForUpdate(input.ProductID, input.Location)
		if err != nil {
			return nil, err
		}
		if input.Quantity.GreaterThan(level.Available()) {
			return nil, domain.ErrInsufficientStock
		}
		level.Reserved = level.Reserved.Add(input.Quantity)
		level.UpdatedAt = now
		if err := r.Levels.Upsert(level); err != nil {
			return nil, err
		}
	}
	res := &entity.Reservation{
		ID:         uuid.New().String(),
		Kind:       input.Kind,
		ProductID:  input.ProductID,
		Location:   input.Location,
		Quantity:   input.Quantity,
		SourceType: input.SourceType,
		SourceID:   input.SourceID,
		Status:     entity.ReservationActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.Reserves.Create(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Release libera una reserva. Idempotente: liberar una reserva ya
// RELEASED/CONSUMED es un no-op exitoso; la disponibilidad se restaura
// solo en la primera llamada.
func (uc *UseCase) Release(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		return uc.ReleaseInTx(r, id)
	})
}

// ReleaseInTx libera dentro de la transacción del caller.
func (uc *UseCase) ReleaseInTx(r *uow.Repos, id string) error {
	res, err := r.Reserves.GetForUpdate(id)
	if err != nil {
		return err
	}
	if res == nil {
		return domain.ErrNotFound
	}
	if !res.IsActive() {
		return nil // ya liberada o consumida: no-op
	}
	if res.Kind == entity.ReservationHard {
		if err := uc.adjustReserved(r, res, res.Quantity.Neg()); err != nil {
			return err
		}
	}
	res.Status = entity.ReservationReleased
	res.UpdatedAt = time.Now()
	return r.Reserves.Update(res)
}

// Promote convierte SOFT→HARD re-validando la disponibilidad al momento de la
// promoción (no confía en el chequeo original). Si no alcanza, falla con
// ErrInsufficientStock y la reserva SOFT queda intacta.
func (uc *UseCase) Promote(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		res, err := r.Reserves.GetForUpdate(id)
		if err != nil {
			return err
		}
		if res == nil {
			return domain.ErrNotFound
		}
		if res.Kind != entity.ReservationSoft || !res.IsActive() {
			return domain.ErrConflict
		}
		level, err := r.Levels.GetForUpdate(res.ProductID, res.Location)
		if err != nil {
			return err
		}
		if res.Quantity.GreaterThan(level.Available()) {
			return domain.ErrInsufficientStock
		}
		now := time.Now()
		level.Reserved = level.Reserved.Add(res.Quantity)
		level.UpdatedAt = now
		if err := r.Levels.Upsert(level); err != nil {
			return err
		}
		res.Kind = entity.ReservationHard
		res.UpdatedAt = now
		return r.Reserves.Update(res)
	})
}

// Consume abre una transacción y consume la reserva. Los flujos normales
// (alistamiento, traslados, jobs) usan ConsumeInTx junto al movimiento de salida.
func (uc *UseCase) Consume(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		return uc.ConsumeInTx(r, id)
	})
}

// ConsumeInTx marca la reserva CONSUMED exactamente una vez. Siempre debe llamarse
// en la misma transacción que el movimiento de salida que respalda, para que
// Reserved quede sincronizado con los compromisos reales.
func (uc *UseCase) ConsumeInTx(r *uow.Repos, id string) error {
	res, err := r.Reserves.GetForUpdate(id)
	if err != nil {
		return err
	}
	if res == nil {
		return domain.ErrNotFound
	}
	if !res.IsActive() {
		return domain.ErrConflict
	}
	if res.Kind == entity.ReservationHard {
		if err := uc.adjustReserved(r, res, res.Quantity.Neg()); err != nil {
			return err
		}
	}
	res.Status = entity.ReservationConsumed
	res.UpdatedAt = time.Now()
	return r.Reserves.Update(res)
}

// Get devuelve una reserva por ID.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Reservation, error) {
	var res *entity.Reservation
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		res, err = r.Reserves.GetByID(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (uc *UseCase) adjustReserved(r *uow.Repos, res *entity.Reservation, delta decimal.Decimal) error {
	level, err := r.Levels.GetForUpdate(res.ProductID, res.Location)
	if err != nil {
		return err
	}
	level.Reserved = level.Reserved.Add(delta)
	if level.Reserved.IsNegative() {
		level.Reserved = decimal.Zero
	}
	level.UpdatedAt = time.Now()
	return r.Levels.Upsert(level)
}
