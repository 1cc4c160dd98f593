package purchasing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
)

// UseCase cubre el ciclo de vida de órdenes de compra y la reconciliación de
// recepciones (GRV). Toda entrada de stock pasa por el libro vía ApplyMovementInTx.
type UseCase struct {
	txRunner uow.TxRunner
	ledger   *ledger.ApplyMovementUseCase
	log      *logger.Logger
}

// NewUseCase construye el caso de uso de compras.
func NewUseCase(txRunner uow.TxRunner, ledgerUC *ledger.ApplyMovementUseCase, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, ledger: ledgerUC, log: log}
}

// CreateInput entrada para crear una OC directa (no orquestada) en borrador.
type CreateInput struct {
	CompanyID  string
	SupplierID string
	Location   string
	Lines      []CreateLine
}

// CreateLine línea de una OC directa.
type CreateLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// Create crea una OC en DRAFT. Las compras directas no llevan vínculo a línea
// de orden de venta (SourceType vacío).
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (*entity.PurchaseOrder, error) {
	if input.SupplierID == "" || input.Location == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range input.Lines {
		if l.ProductID == "" {
			return nil, domain.ErrInvalidInput
		}
		if !l.Quantity.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidQuantity
		}
	}
	now := time.Now()
	po := &entity.PurchaseOrder{
		ID:         uuid.New().String(),
		CompanyID:  input.CompanyID,
		SupplierID: input.SupplierID,
		Location:   input.Location,
		Status:     entity.POStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, l := range input.Lines {
		po.Lines = append(po.Lines, &entity.PurchaseOrderLine{
			ID:              uuid.New().String(),
			PurchaseOrderID: po.ID,
			LineNumber:      i + 1,
			ProductID:       l.ProductID,
			QuantityOrdered: l.Quantity,
		})
	}
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		return r.POs.Create(po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Get devuelve una OC con sus líneas.
func (uc *UseCase) Get(ctx context.Context, poID string) (*entity.PurchaseOrder, error) {
	var po *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		po, err = r.POs.GetByID(poID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	return po, nil
}

// Submit pasa la OC de borrador a pendiente de aprobación.
func (uc *UseCase) Submit(ctx context.Context, poID string) error {
	return uc.transition(ctx, poID, entity.POStatusPendingApproval, nil)
}

// Approve aprueba y envía la OC al proveedor. En la misma transacción sube el
// OnOrder de cada clave por lo pendiente de la línea.
func (uc *UseCase) Approve(ctx context.Context, poID string) error {
	return uc.transition(ctx, poID, entity.POStatusSent, func(r *uow.Repos, po *entity.PurchaseOrder) error {
		for _, line := range po.Lines {
			if err := uc.adjustOnOrder(r, line.ProductID, po.Location, line.OutstandingQuantity()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Acknowledge registra el acuse de recibo del proveedor.
func (uc *UseCase) Acknowledge(ctx context.Context, poID string) error {
	return uc.transition(ctx, poID, entity.POStatusAcknowledged, nil)
}

// Cancel cancela la OC (solo antes de RECEIVED). Libera el OnOrder pendiente
// si la orden ya se había enviado.
func (uc *UseCase) Cancel(ctx context.Context, poID string) error {
	return uc.transition(ctx, poID, entity.POStatusCancelled, func(r *uow.Repos, po *entity.PurchaseOrder) error {
		switch po.Status {
		case entity.POStatusSent, entity.POStatusAcknowledged, entity.POStatusPartiallyReceived:
			for _, line := range po.Lines {
				if err := uc.adjustOnOrder(r, line.ProductID, po.Location, line.OutstandingQuantity().Neg()); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close cierra una OC completamente recibida.
func (uc *UseCase) Close(ctx context.Context, poID string) error {
	return uc.transition(ctx, poID, entity.POStatusClosed, nil)
}

// transition aplica una transición de la tabla; before corre con el estado
// anterior todavía vigente, dentro de la misma transacción.
func (uc *UseCase) transition(ctx context.Context, poID, to string, before func(*uow.Repos, *entity.PurchaseOrder) error) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		po, err := r.POs.GetByIDForUpdate(poID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		if !po.CanTransition(to) {
			return domain.ErrInvalidTransition
		}
		if before != nil {
			if err := before(r, po); err != nil {
				return err
			}
		}
		po.TransitionTo(to)
		po.UpdatedAt = time.Now()
		return r.POs.Update(po)
	})
}

func (uc *UseCase) adjustOnOrder(r *uow.Repos, productID, location string, delta decimal.Decimal) error {
	level, err := r.Levels.GetForUpdate(productID, location)
	if err != nil {
		return err
	}
	level.OnOrder = level.OnOrder.Add(delta)
	if level.OnOrder.IsNegative() {
		level.OnOrder = decimal.Zero
	}
	level.UpdatedAt = time.Now()
	return r.Levels.Upsert(level)
}

// ReceiveGoodsInput entrada para registrar una recepción contra una OC.
type ReceiveGoodsInput struct {
	PurchaseOrderID string
	Actor           string
	Lines           []ReceiveGoodsLine
}

// ReceiveGoodsLine cantidades recibidas/rechazadas por línea de OC.
// UnitCost, si viene, recalcula el costo promedio del producto.
type ReceiveGoodsLine struct {
	PurchaseOrderLineID string
	QuantityReceived    decimal.Decimal
	QuantityRejected    decimal.Decimal
	UnitCost            *decimal.Decimal
}

// ReceiveGoods crea el GRV y reconcilia la OC en una sola transacción:
// movimientos RECEIPT al libro (suben OnHand y bajan OnOrder), acumulado de
// QuantityReceived por línea, marca de sobre-recibo (permitido, no bloqueado)
// y rollup del estado de la OC a PARTIALLY_RECEIVED o RECEIVED.
func (uc *UseCase) ReceiveGoods(ctx context.Context, input ReceiveGoodsInput) (*entity.GoodsReceipt, error) {
	if input.PurchaseOrderID == "" || len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range input.Lines {
		if l.QuantityReceived.IsNegative() || l.QuantityRejected.IsNegative() {
			return nil, domain.ErrInvalidQuantity
		}
	}

	var receipt *entity.GoodsReceipt
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		po, err := r.POs.GetByIDForUpdate(input.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po == nil {
			return domain.ErrNotFound
		}
		switch po.Status {
		case entity.POStatusSent, entity.POStatusAcknowledged, entity.POStatusPartiallyReceived:
		default:
			return domain.ErrInvalidTransition
		}

		now := time.Now()
		receipt = &entity.GoodsReceipt{
			ID:              uuid.New().String(),
			PurchaseOrderID: po.ID,
			Location:        po.Location,
			Actor:           input.Actor,
			CreatedAt:       now,
		}
		poLines := make(map[string]*entity.PurchaseOrderLine, len(po.Lines))
		for _, pl := range po.Lines {
			poLines[pl.ID] = pl
		}

		for _, in := range input.Lines {
			poLine, ok := poLines[in.PurchaseOrderLineID]
			if !ok {
				return domain.ErrNotFound
			}
			grvLine := &entity.GoodsReceiptLine{
				ID:                  uuid.New().String(),
				GoodsReceiptID:      receipt.ID,
				PurchaseOrderLineID: poLine.ID,
				ProductID:           poLine.ProductID,
				QuantityExpected:    poLine.OutstandingQuantity(),
				QuantityReceived:    in.QuantityReceived,
				QuantityRejected:    in.QuantityRejected,
			}
			grvLine.FlagOverReceipt()
			receipt.Lines = append(receipt.Lines, grvLine)

			if in.QuantityReceived.GreaterThan(decimal.Zero) {
				_, err := uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
					Type:          entity.MovementReceipt,
					ProductID:     poLine.ProductID,
					Location:      po.Location,
					Quantity:      in.QuantityReceived,
					ReferenceType: entity.RefGoodsReceipt,
					ReferenceID:   receipt.ID,
					Actor:         input.Actor,
					UnitCost:      in.UnitCost,
				})
				if err != nil {
					return err
				}
				poLine.QuantityReceived = poLine.QuantityReceived.Add(in.QuantityReceived)
				if err := r.POs.UpdateLine(poLine); err != nil {
					return err
				}
			}
		}

		if err := r.Receipts.Create(receipt); err != nil {
			return err
		}

		// Propagación hija→padre atada a la misma transacción del GRV.
		if next := po.ReceiptStatus(); next != po.Status && po.CanTransition(next) {
			po.TransitionTo(next)
		}
		po.UpdatedAt = now
		return r.POs.Update(po)
	})
	if err != nil {
		return nil, err
	}
	if uc.log != nil {
		uc.log.Info().
			Str("po_id", input.PurchaseOrderID).
			Str("grv_id", receipt.ID).
			Int("lines", len(receipt.Lines)).
			Msg("recepción registrada")
	}
	return receipt, nil
}
