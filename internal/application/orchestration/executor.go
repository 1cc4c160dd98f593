package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// Executor confirma un plan aprobado: crea los documentos descendientes, las
// reservas HARD y los backorders en una sola transacción. Todo-o-nada: cualquier
// fallo revierte la ejecución completa y el caller debe regenerar un plan fresco.
type Executor struct {
	txRunner uow.TxRunner
	reserves *reservation.UseCase
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewExecutor construye el ejecutor.
func NewExecutor(txRunner uow.TxRunner, reserves *reservation.UseCase, m *metrics.Metrics, log *logger.Logger) *Executor {
	return &Executor{txRunner: txRunner, reserves: reserves, metrics: m, log: log}
}

// ExecutePlan re-valida la disponibilidad contra los supuestos del plan y, si
// siguen en pie, confirma. Si las condiciones empeoraron desde la generación
// retorna ErrPlanStale (guarda la carrera preview/commit); de dos ejecuciones
// concurrentes por el mismo stock exactamente una gana.
func (e *Executor) ExecutePlan(ctx context.Context, plan *Plan, actor string) (*ExecutionResult, error) {
	if plan == nil || plan.OrderID == "" {
		return nil, domain.ErrInvalidInput
	}
	if plan.Held || plan.NeedsSalesDecision {
		return nil, domain.ErrPlanHeld
	}
	if len(plan.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}

	result := &ExecutionResult{OrderID: plan.OrderID}
	err := e.txRunner.Run(ctx, func(r *uow.Repos) error {
		return e.execute(r, plan, actor, result)
	})
	if err != nil {
		if e.metrics != nil && errors.Is(err, domain.ErrPlanStale) {
			e.metrics.ExecutionsStale.Inc()
		}
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ExecutionsCommitted.Inc()
	}
	if e.log != nil {
		e.log.Info().
			Str("order_id", plan.OrderID).
			Int("documents", len(result.CreatedDocuments)).
			Msg("plan ejecutado")
	}
	return result, nil
}

func (e *Executor) execute(r *uow.Repos, plan *Plan, actor string, result *ExecutionResult) error {
	order, err := r.Orders.GetByIDForUpdate(plan.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return domain.ErrNotFound
	}
	linesByID := make(map[string]*entity.SalesOrderLine, len(order.Lines))
	for _, line := range order.Lines {
		linesByID[line.ID] = line
	}

	// Un reenvío del mismo plan (reintento HTTP, doble click) no debe duplicar
	// documentos ni reservas: lo ya en vuelo por línea cuenta como cobertura y
	// ejecutar por encima de lo pendiente es conflicto de vínculo, no staleness.
	planned := make(map[string]decimal.Decimal)
	for _, pl := range plan.Lines {
		planned[pl.OrderLineID] = planned[pl.OrderLineID].Add(pl.Quantity)
	}
	for lineID, qty := range planned {
		line, ok := linesByID[lineID]
		if !ok {
			return domain.ErrNotFound
		}
		// Re-vincular una línea ya cumplida es conflicto, no staleness.
		if line.StatusAtLeast(entity.LinePicked) {
			return domain.ErrDocumentLinkConflict
		}
		covered, err := openCoverage(r, lineID)
		if err != nil {
			return err
		}
		if qty.GreaterThan(line.QuantityOrdered.Sub(covered)) {
			return domain.ErrDocumentLinkConflict
		}
	}

	now := time.Now()
	var slip *entity.PickingSlip                       // una lista de alistamiento por ejecución
	posBySupplier := make(map[string]*entity.PurchaseOrder) // una OC borrador por proveedor
	touched := make(map[string]*entity.SalesOrderLine)

	for _, pl := range plan.Lines {
		line := linesByID[pl.OrderLineID]
		touched[line.ID] = line

		var outcome LineOutcome
		switch pl.Action {
		case ActionPick:
			outcome, err = e.executePick(r, order, line, pl, &slip, now)
		case ActionTransfer:
			outcome, err = e.executeTransfer(r, order, line, pl, now)
		case ActionManufacture:
			outcome, err = e.executeManufacture(r, order, line, pl, now)
		case ActionPurchase:
			outcome, err = e.executePurchase(r, order, line, pl, posBySupplier, now)
		default:
			err = domain.ErrInvalidInput
		}
		if err != nil {
			return err
		}
		result.Lines = append(result.Lines, outcome)
	}

	if slip != nil {
		if err := r.Slips.Create(slip); err != nil {
			return err
		}
		result.CreatedDocuments = append(result.CreatedDocuments, entity.DocumentRef{Type: entity.RefPickingSlip, ID: slip.ID})
	}
	for _, po := range posBySupplier {
		if err := r.POs.Create(po); err != nil {
			return err
		}
		result.CreatedDocuments = append(result.CreatedDocuments, entity.DocumentRef{Type: entity.RefPurchaseOrder, ID: po.ID})
	}

	// Persistir backorder y estado por línea tocada. El backorder vigente es lo
	// pendiente en líneas de OC abiertas vinculadas; las OC recién creadas ya
	// están persistidas en esta transacción, así que el listado las incluye.
	for _, line := range touched {
		backorder := decimal.Zero
		poLines, err := r.POs.ListOpenBySourceLine(line.ID)
		if err != nil {
			return err
		}
		for _, plns := range poLines {
			backorder = backorder.Add(plns.OutstandingQuantity())
		}
		line.QuantityBackorder = backorder
		line.UpdatedAt = now
		if err := r.Orders.UpdateLine(line); err != nil {
			return err
		}
	}
	return nil
}

// executePick re-valida disponibilidad, reserva HARD y agrega la línea a la
// lista de alistamiento de la ejecución. Avanza la línea a PICKING.
func (e *Executor) executePick(r *uow.Repos, order *entity.SalesOrder, line *entity.SalesOrderLine, pl *PlanLine, slip **entity.PickingSlip, now time.Time) (LineOutcome, error) {
	level, err := r.Levels.GetForUpdate(line.ProductID, pl.SourceLocation)
	if err != nil {
		return LineOutcome{}, err
	}
	if level.Available().LessThan(pl.Quantity) {
		return LineOutcome{}, domain.ErrPlanStale
	}
	res, err := e.reserves.ReserveInTx(r, reservation.ReserveInput{
		Kind:       entity.ReservationHard,
		ProductID:  line.ProductID,
		Location:   pl.SourceLocation,
		Quantity:   pl.Quantity,
		SourceType: entity.RefOrderLine,
		SourceID:   line.ID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return LineOutcome{}, domain.ErrPlanStale
		}
		return LineOutcome{}, err
	}

	if *slip == nil {
		*slip = &entity.PickingSlip{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			Location:  pl.SourceLocation,
			Status:    entity.DocumentOpen,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	slipLine := &entity.PickingSlipLine{
		ID:            uuid.New().String(),
		PickingSlipID: (*slip).ID,
		OrderLineID:   line.ID,
		ProductID:     line.ProductID,
		Quantity:      pl.Quantity,
		ReservationID: res.ID,
	}
	(*slip).Lines = append((*slip).Lines, slipLine)
	line.LinkDocument(entity.RefPickingSlip, (*slip).ID)
	if line.Status == entity.LinePending {
		line.AdvanceTo(entity.LinePicking)
	}
	return LineOutcome{
		OrderLineID:  line.ID,
		Action:       ActionPick,
		DocumentType: entity.RefPickingSlip,
		DocumentID:   (*slip).ID,
		Quantity:     pl.Quantity,
	}, nil
}

// executeTransfer reserva HARD en la ubicación origen y crea la solicitud de traslado
// hacia la ubicación preferida de la orden.
func (e *Executor) executeTransfer(r *uow.Repos, order *entity.SalesOrder, line *entity.SalesOrderLine, pl *PlanLine, now time.Time) (LineOutcome, error) {
	level, err := r.Levels.GetForUpdate(line.ProductID, pl.SourceLocation)
	if err != nil {
		return LineOutcome{}, err
	}
	if level.Available().LessThan(pl.Quantity) {
		return LineOutcome{}, domain.ErrPlanStale
	}
	transferID := uuid.New().String()
	res, err := e.reserves.ReserveInTx(r, reservation.ReserveInput{
		Kind:       entity.ReservationHard,
		ProductID:  line.ProductID,
		Location:   pl.SourceLocation,
		Quantity:   pl.Quantity,
		SourceType: entity.RefTransferRequest,
		SourceID:   transferID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return LineOutcome{}, domain.ErrPlanStale
		}
		return LineOutcome{}, err
	}
	transfer := &entity.TransferRequest{
		ID:            transferID,
		OrderLineID:   line.ID,
		ProductID:     line.ProductID,
		FromLocation:  pl.SourceLocation,
		ToLocation:    order.Location,
		Quantity:      pl.Quantity,
		ReservationID: res.ID,
		Status:        entity.DocumentOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Transfers.Create(transfer); err != nil {
		return LineOutcome{}, err
	}
	line.LinkDocument(entity.RefTransferRequest, transferID)
	return LineOutcome{
		OrderLineID:  line.ID,
		Action:       ActionTransfer,
		DocumentType: entity.RefTransferRequest,
		DocumentID:   transferID,
		Quantity:     pl.Quantity,
	}, nil
}

// executeManufacture congela el BOM en el job card y reserva HARD cada componente.
func (e *Executor) executeManufacture(r *uow.Repos, order *entity.SalesOrder, line *entity.SalesOrderLine, pl *PlanLine, now time.Time) (LineOutcome, error) {
	bom, err := r.BOMs.GetByProduct(line.ProductID)
	if err != nil {
		return LineOutcome{}, err
	}
	if bom == nil || len(bom.Lines) == 0 {
		return LineOutcome{}, domain.ErrPlanStale
	}
	jobID := uuid.New().String()
	components := bom.Snapshot(pl.Quantity)
	for _, comp := range components {
		level, err := r.Levels.GetForUpdate(comp.ComponentID, order.Location)
		if err != nil {
			return LineOutcome{}, err
		}
		if level.Available().LessThan(comp.Quantity) {
			return LineOutcome{}, domain.ErrPlanStale
		}
		res, err := e.reserves.ReserveInTx(r, reservation.ReserveInput{
			Kind:       entity.ReservationHard,
			ProductID:  comp.ComponentID,
			Location:   order.Location,
			Quantity:   comp.Quantity,
			SourceType: entity.RefJobCard,
			SourceID:   jobID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				return LineOutcome{}, domain.ErrPlanStale
			}
			return LineOutcome{}, err
		}
		comp.ReservationID = res.ID
	}
	job := &entity.JobCard{
		ID:          jobID,
		OrderLineID: line.ID,
		ProductID:   line.ProductID,
		Location:    order.Location,
		Quantity:    pl.Quantity,
		Status:      entity.DocumentOpen,
		Components:  components,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Jobs.Create(job); err != nil {
		return LineOutcome{}, err
	}
	line.LinkDocument(entity.RefJobCard, jobID)
	return LineOutcome{
		OrderLineID:  line.ID,
		Action:       ActionManufacture,
		DocumentType: entity.RefJobCard,
		DocumentID:   jobID,
		Quantity:     pl.Quantity,
	}, nil
}

// executePurchase agrega una línea a la OC borrador del proveedor preferido,
// vinculada por SourceType=ORDER_LINE a la línea de venta origen.
func (e *Executor) executePurchase(r *uow.Repos, order *entity.SalesOrder, line *entity.SalesOrderLine, pl *PlanLine, posBySupplier map[string]*entity.PurchaseOrder, now time.Time) (LineOutcome, error) {
	product, err := r.Products.GetByID(line.ProductID)
	if err != nil {
		return LineOutcome{}, err
	}
	if product == nil {
		return LineOutcome{}, domain.ErrNotFound
	}
	po, ok := posBySupplier[product.PreferredSupplierID]
	if !ok {
		po = &entity.PurchaseOrder{
			ID:         uuid.New().String(),
			CompanyID:  order.CompanyID,
			SupplierID: product.PreferredSupplierID,
			Location:   order.Location,
			Status:     entity.POStatusDraft,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		posBySupplier[product.PreferredSupplierID] = po
	}
	poLine := &entity.PurchaseOrderLine{
		ID:              uuid.New().String(),
		PurchaseOrderID: po.ID,
		LineNumber:      len(po.Lines) + 1,
		ProductID:       line.ProductID,
		QuantityOrdered: pl.Quantity,
		SourceType:      entity.RefOrderLine,
		SourceID:        line.ID,
	}
	po.Lines = append(po.Lines, poLine)
	line.LinkDocument(entity.RefPurchaseOrder, po.ID)
	return LineOutcome{
		OrderLineID:       line.ID,
		Action:            ActionPurchase,
		DocumentType:      entity.RefPurchaseOrder,
		DocumentID:        po.ID,
		Quantity:          pl.Quantity,
		BackorderQuantity: pl.BackorderQuantity,
	}, nil
}
