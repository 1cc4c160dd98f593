package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// ApplyMovementUseCase es la única puerta de entrada al libro de stock: toda ruta
// que muta cantidades (recibir, emitir, ajustar, trasladar, fabricar) pasa por aquí.
// Cada aplicación agrega la fila inmutable y actualiza el StockLevel materializado
// en una sola unidad atómica, con la fila bloqueada (SELECT FOR UPDATE).
type ApplyMovementUseCase struct {
	txRunner uow.TxRunner
	metrics  *metrics.Metrics
}

// NewApplyMovementUseCase construye el caso de uso.
func NewApplyMovementUseCase(txRunner uow.TxRunner, m *metrics.Metrics) *ApplyMovementUseCase {
	return &ApplyMovementUseCase{txRunner: txRunner, metrics: m}
}

// ApplyMovementInput entrada para aplicar un movimiento al libro.
// Quantity siempre es magnitud positiva; la dirección la da Type.
// UnitCost solo aplica en RECEIPT (recalcula el costo promedio del producto).
type ApplyMovementInput struct {
	Type          string
	ProductID     string
	Location      string
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Actor         string
	UnitCost      *decimal.Decimal
}

// ApplyMovement valida la entrada, abre una transacción y aplica el movimiento.
// Retorna el StockLevel resultante ya confirmado.
func (uc *ApplyMovementUseCase) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*entity.StockLevel, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	var level *entity.StockLevel
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		level, err = uc.ApplyMovementInTx(r, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.MovementsApplied.WithLabelValues(input.Type).Inc()
	}
	return level, nil
}

// ApplyMovementInTx aplica el movimiento usando repositorios ya atados a la
// transacción del caller (ejecutor, propagación, recepciones). El caller es
// responsable del Commit/Rollback.
func (uc *ApplyMovementUseCase) ApplyMovementInTx(r *uow.Repos, input ApplyMovementInput) (*entity.StockLevel, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// Bloquea la fila del nivel: serializa todas las escrituras de la clave
	// para que Available nunca se calcule de una lectura concurrente rota.
	level, err := r.Levels.GetForUpdate(input.ProductID, input.Location)
	if err != nil {
		return nil, err
	}

	signed := input.Quantity
	if !entity.IsInbound(input.Type) {
		signed = signed.Neg()
	}
	newOnHand := level.OnHand.Add(signed)
	// OnHand nunca negativo y Available (OnHand - Reserved) nunca negativo.
	if newOnHand.IsNegative() || newOnHand.LessThan(level.Reserved) {
		return nil, domain.ErrInsufficientStock
	}

	now := time.Now()
	level.OnHand = newOnHand
	level.UpdatedAt = now

	if input.Type == entity.MovementReceipt {
		// El RECEIPT descuenta lo pendiente por recibir (piso cero).
		level.OnOrder = level.OnOrder.Sub(input.Quantity)
		if level.OnOrder.IsNegative() {
			level.OnOrder = decimal.Zero
		}
		if input.UnitCost != nil {
			if err := uc.recalculateCost(r, level, input); err != nil {
				return nil, err
			}
		}
	}

	if err := r.Levels.Upsert(level); err != nil {
		return nil, err
	}
	movement := &entity.StockMovement{
		ID:            uuid.New().String(),
		ProductID:     input.ProductID,
		Location:      input.Location,
		Type:          input.Type,
		Quantity:      input.Quantity,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Actor:         input.Actor,
		CreatedAt:     now,
	}
	if err := r.Movements.Append(movement); err != nil {
		return nil, err
	}
	return level, nil
}

// recalculateCost aplica costo promedio ponderado al producto en la misma tx.
// El OnHand previo a la entrada es level.OnHand - quantity (ya sumado arriba).
func (uc *ApplyMovementUseCase) recalculateCost(r *uow.Repos, level *entity.StockLevel, input ApplyMovementInput) error {
	product, err := r.Products.GetByID(input.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	prevOnHand := level.OnHand.Sub(input.Quantity)
	newCost := fulfillment.WeightedAverageCost(prevOnHand, product.Cost, input.Quantity, *input.UnitCost)
	return r.Products.UpdateCost(input.ProductID, newCost)
}

// ReplayLevel reconstruye el OnHand de una clave desde cero sumando con signo
// todos sus movimientos confirmados. Solo lectura: sirve para auditoría y para
// verificar que la vista materializada no se desvió del libro.
func (uc *ApplyMovementUseCase) ReplayLevel(ctx context.Context, productID, location string) (decimal.Decimal, error) {
	onHand := decimal.Zero
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		movements, err := r.Movements.ListByKey(productID, location)
		if err != nil {
			return err
		}
		for _, m := range movements {
			onHand = onHand.Add(m.SignedQuantity())
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return onHand, nil
}

func validateInput(input ApplyMovementInput) error {
	if !entity.IsValidMovementType(input.Type) {
		return domain.ErrInvalidInput
	}
	if input.ProductID == "" || input.Location == "" {
		return domain.ErrInvalidInput
	}
	// La validación rechaza antes de tocar el libro: cantidad estrictamente positiva.
	if !input.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidQuantity
	}
	return nil
}
