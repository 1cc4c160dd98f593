package propagation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
)

// UseCase implementa la propagación de estado entre documentos, siempre en
// dirección hija→padre: eventos de documentos descendientes (pick confirmado,
// job terminado, traslado recibido, pago registrado) suben hacia la línea y la
// orden. Cada paso queda atado a la transacción del evento que lo dispara.
type UseCase struct {
	txRunner  uow.TxRunner
	ledger    *ledger.ApplyMovementUseCase
	reserves  *reservation.UseCase
	generator *orchestration.PlanGenerator
	executor  *orchestration.Executor
	log       *logger.Logger
}

// NewUseCase construye la propagación. generator y executor solo se usan para
// el ciclo automático disparado por pagos.
func NewUseCase(
	txRunner uow.TxRunner,
	ledgerUC *ledger.ApplyMovementUseCase,
	reserves *reservation.UseCase,
	generator *orchestration.PlanGenerator,
	executor *orchestration.Executor,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:  txRunner,
		ledger:    ledgerUC,
		reserves:  reserves,
		generator: generator,
		executor:  executor,
		log:       log,
	}
}

// ConfirmPick confirma una lista de alistamiento: por cada línea consume su
// reserva HARD y aplica el ISSUE en la misma transacción, luego avanza la línea
// de orden si este era su último alistamiento pendiente.
func (uc *UseCase) ConfirmPick(ctx context.Context, slipID, actor string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		slip, err := r.Slips.GetByIDForUpdate(slipID)
		if err != nil {
			return err
		}
		if slip == nil {
			return domain.ErrNotFound
		}
		if slip.Status != entity.DocumentOpen {
			return domain.ErrConflict
		}
		now := time.Now()
		for _, sl := range slip.Lines {
			if err := uc.reserves.ConsumeInTx(r, sl.ReservationID); err != nil {
				return err
			}
			_, err := uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
				Type:          entity.MovementIssue,
				ProductID:     sl.ProductID,
				Location:      slip.Location,
				Quantity:      sl.Quantity,
				ReferenceType: entity.RefPickingSlip,
				ReferenceID:   slip.ID,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
			if err := uc.advanceLineAfterFulfillment(r, sl.OrderLineID, entity.LinePicked, slip.ID, now); err != nil {
				return err
			}
		}
		slip.Status = entity.DocumentConfirmed
		slip.UpdatedAt = now
		return r.Slips.Update(slip)
	})
}

// CompleteJob termina un job card: consume las reservas de componentes, aplica
// MANUFACTURE_OUT por cada componente del snapshot congelado al crear el job
// (no del BOM vivo) y MANUFACTURE_IN por la salida, y avanza la línea vinculada
// si esta era su última acción de cumplimiento pendiente.
func (uc *UseCase) CompleteJob(ctx context.Context, jobID, actor string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		job, err := r.Jobs.GetByIDForUpdate(jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return domain.ErrNotFound
		}
		if job.Status != entity.DocumentOpen {
			return domain.ErrConflict
		}
		now := time.Now()
		for _, comp := range job.Components {
			if err := uc.reserves.ConsumeInTx(r, comp.ReservationID); err != nil {
				return err
			}
			_, err := uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
				Type:          entity.MovementManufactureOut,
				ProductID:     comp.ComponentID,
				Location:      job.Location,
				Quantity:      comp.Quantity,
				ReferenceType: entity.RefJobCard,
				ReferenceID:   job.ID,
				Actor:         actor,
			})
			if err != nil {
				return err
			}
		}
		_, err = uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
			Type:          entity.MovementManufactureIn,
			ProductID:     job.ProductID,
			Location:      job.Location,
			Quantity:      job.Quantity,
			ReferenceType: entity.RefJobCard,
			ReferenceID:   job.ID,
			Actor:         actor,
		})
		if err != nil {
			return err
		}
		job.Status = entity.DocumentCompleted
		job.UpdatedAt = now
		if err := r.Jobs.Update(job); err != nil {
			return err
		}
		// El producto fabricado queda en stock listo para alistar: la línea
		// avanza a PICKING si aún estaba pendiente.
		line, err := r.Orders.GetLineByID(job.OrderLineID)
		if err != nil {
			return err
		}
		if line != nil && line.Status == entity.LinePending {
			line.AdvanceTo(entity.LinePicking)
			line.UpdatedAt = now
			return r.Orders.UpdateLine(line)
		}
		return nil
	})
}

// ReceiveTransfer recibe un traslado: TRANSFER_OUT en origen consumiendo su
// reserva y TRANSFER_IN en destino, todo en una transacción. Despejar el
// backorder restante exige re-disparar la generación del plan manualmente
// (no hay replanificación automática).
func (uc *UseCase) ReceiveTransfer(ctx context.Context, transferID, actor string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		transfer, err := r.Transfers.GetByIDForUpdate(transferID)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if transfer.Status != entity.DocumentOpen {
			return domain.ErrConflict
		}
		if err := uc.reserves.ConsumeInTx(r, transfer.ReservationID); err != nil {
			return err
		}
		_, err = uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
			Type:          entity.MovementTransferOut,
			ProductID:     transfer.ProductID,
			Location:      transfer.FromLocation,
			Quantity:      transfer.Quantity,
			ReferenceType: entity.RefTransferRequest,
			ReferenceID:   transfer.ID,
			Actor:         actor,
		})
		if err != nil {
			return err
		}
		_, err = uc.ledger.ApplyMovementInTx(r, ledger.ApplyMovementInput{
			Type:          entity.MovementTransferIn,
			ProductID:     transfer.ProductID,
			Location:      transfer.ToLocation,
			Quantity:      transfer.Quantity,
			ReferenceType: entity.RefTransferRequest,
			ReferenceID:   transfer.ID,
			Actor:         actor,
		})
		if err != nil {
			return err
		}
		transfer.Status = entity.DocumentReceived
		transfer.UpdatedAt = time.Now()
		return r.Transfers.Update(transfer)
	})
}

// ShipOrder avanza a SHIPPED todas las líneas ya alistadas de la orden.
func (uc *UseCase) ShipOrder(ctx context.Context, orderID string) error {
	return uc.advanceOrderLines(ctx, orderID, entity.LineShipped)
}

// DeliverOrder avanza a DELIVERED todas las líneas ya despachadas.
func (uc *UseCase) DeliverOrder(ctx context.Context, orderID string) error {
	return uc.advanceOrderLines(ctx, orderID, entity.LineDelivered)
}

func (uc *UseCase) advanceOrderLines(ctx context.Context, orderID, status string) error {
	return uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		order, err := r.Orders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		advanced := false
		now := time.Now()
		for _, line := range order.Lines {
			if line.AdvanceTo(status) {
				line.UpdatedAt = now
				if err := r.Orders.UpdateLine(line); err != nil {
					return err
				}
				advanced = true
			}
		}
		if !advanced {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// RecordPayment registra un pago contra la orden. Si los términos son
// PREPAID/COD y el pago alcanza el estado requerido, dispara automáticamente
// un ciclo fresco de generatePlan + executePlan para la orden.
func (uc *UseCase) RecordPayment(ctx context.Context, orderID string, amount decimal.Decimal) (*orchestration.ExecutionResult, error) {
	if !amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}
	triggerFulfillment := false
	err := uc.txRunner.Run(ctx, func(r *uow.Repos) error {
		order, err := r.Orders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		wasPaid := order.PaymentStatus == entity.PaymentPaid
		order.AmountPaid = order.AmountPaid.Add(amount)
		switch {
		case order.AmountPaid.GreaterThanOrEqual(order.Total):
			order.PaymentStatus = entity.PaymentPaid
		case order.AmountPaid.GreaterThan(decimal.Zero):
			order.PaymentStatus = entity.PaymentPartial
		}
		order.UpdatedAt = time.Now()
		if err := r.Orders.Update(order); err != nil {
			return err
		}
		triggerFulfillment = !wasPaid &&
			order.PaymentStatus == entity.PaymentPaid &&
			order.RequiresPaymentBeforeFulfillment()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !triggerFulfillment {
		return nil, nil
	}

	// Ciclo automático post-pago. Corre en sus propias transacciones; un fallo
	// aquí no revierte el pago, solo queda registrado para reintento manual.
	plan, err := uc.generator.GeneratePlan(ctx, orderID, nil)
	if err != nil {
		if uc.log != nil {
			uc.log.Warn().Err(err).Str("order_id", orderID).Msg("auto-cumplimiento: generar plan falló")
		}
		return nil, nil
	}
	if plan.Held || plan.NeedsSalesDecision || len(plan.Lines) == 0 {
		return nil, nil
	}
	result, err := uc.executor.ExecutePlan(ctx, plan, "system:payment")
	if err != nil {
		if uc.log != nil {
			uc.log.Warn().Err(err).Str("order_id", orderID).Msg("auto-cumplimiento: ejecutar plan falló")
		}
		return nil, nil
	}
	return result, nil
}

// advanceLineAfterFulfillment avanza la línea al estado objetivo cuando el
// documento confirmado era su última acción de cumplimiento pendiente.
func (uc *UseCase) advanceLineAfterFulfillment(r *uow.Repos, orderLineID, target, excludeSlipID string, now time.Time) error {
	line, err := r.Orders.GetLineByID(orderLineID)
	if err != nil {
		return err
	}
	if line == nil {
		return domain.ErrNotFound
	}
	outstanding, err := uc.hasOutstandingActions(r, orderLineID, excludeSlipID)
	if err != nil {
		return err
	}
	if outstanding {
		return nil
	}
	if line.AdvanceTo(target) {
		line.UpdatedAt = now
		return r.Orders.UpdateLine(line)
	}
	return nil
}

// hasOutstandingActions revisa si la línea aún tiene documentos de cumplimiento
// abiertos (otros alistamientos, traslados, jobs o líneas de OC pendientes).
func (uc *UseCase) hasOutstandingActions(r *uow.Repos, orderLineID, excludeSlipID string) (bool, error) {
	slipLines, err := r.Slips.ListOpenByOrderLine(orderLineID)
	if err != nil {
		return false, err
	}
	for _, sl := range slipLines {
		if sl.PickingSlipID != excludeSlipID {
			return true, nil
		}
	}
	transfers, err := r.Transfers.ListOpenByOrderLine(orderLineID)
	if err != nil {
		return false, err
	}
	if len(transfers) > 0 {
		return true, nil
	}
	jobs, err := r.Jobs.ListOpenByOrderLine(orderLineID)
	if err != nil {
		return false, err
	}
	if len(jobs) > 0 {
		return true, nil
	}
	poLines, err := r.POs.ListOpenBySourceLine(orderLineID)
	if err != nil {
		return false, err
	}
	for _, pl := range poLines {
		if pl.OutstandingQuantity().GreaterThan(decimal.Zero) {
			return true, nil
		}
	}
	return false, nil
}
