package propagation_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/propagation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/internal/infrastructure/memory"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: la pila completa sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memory.Store
	generator *orchestration.PlanGenerator
	executor  *orchestration.Executor
	uc        *propagation.UseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	m := metrics.New()
	ledgerUC := ledger.NewApplyMovementUseCase(store, m)
	reserves := reservation.NewUseCase(store, m)
	cfg := orchestration.Config{CompanyDefaultPolicy: fulfillment.ShipPartial, AllowCrossLocation: true}
	generator := orchestration.NewPlanGenerator(store, cfg, m, logger.Nop())
	executor := orchestration.NewExecutor(store, reserves, m, logger.Nop())
	return &fixture{
		store:     store,
		generator: generator,
		executor:  executor,
		uc:        propagation.NewUseCase(store, ledgerUC, reserves, generator, executor, logger.Nop()),
	}
}

func (f *fixture) seedLevel(t *testing.T, productID, location string, onHand int64) {
	t.Helper()
	err := f.store.Run(context.Background(), func(r *uow.Repos) error {
		lvl := entity.NewStockLevel(productID, location)
		lvl.OnHand = decimal.NewFromInt(onHand)
		return r.Levels.Upsert(lvl)
	})
	require.NoError(t, err)
}

func (f *fixture) seedOrder(qty int64, terms string) {
	f.store.SeedOrder(&entity.SalesOrder{
		ID: "order-1", CompanyID: "co-1", CustomerID: "cust-1", Location: "JHB",
		PaymentTerms: terms, PaymentStatus: entity.PaymentUnpaid,
		Total: decimal.NewFromInt(100),
		Lines: []*entity.SalesOrderLine{{
			ID: "line-1", OrderID: "order-1", LineNumber: 1, ProductID: "prod-1",
			QuantityOrdered: decimal.NewFromInt(qty), Status: entity.LinePending,
		}},
	})
}

// planAndExecute genera y ejecuta el plan de order-1, devolviendo el resultado.
func (f *fixture) planAndExecute(t *testing.T) *orchestration.ExecutionResult {
	t.Helper()
	ctx := context.Background()
	plan, err := f.generator.GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)
	result, err := f.executor.ExecutePlan(ctx, plan, "user-1")
	require.NoError(t, err)
	return result
}

func (f *fixture) level(t *testing.T, productID, location string) *entity.StockLevel {
	t.Helper()
	var lvl *entity.StockLevel
	err := f.store.Run(context.Background(), func(r *uow.Repos) error {
		var err error
		lvl, err = r.Levels.Get(productID, location)
		return err
	})
	require.NoError(t, err)
	return lvl
}

func (f *fixture) line(t *testing.T, lineID string) *entity.SalesOrderLine {
	t.Helper()
	var line *entity.SalesOrderLine
	err := f.store.Run(context.Background(), func(r *uow.Repos) error {
		var err error
		line, err = r.Orders.GetLineByID(lineID)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, line)
	return line
}

func (f *fixture) movementsByRef(t *testing.T, refType, refID string) []*entity.StockMovement {
	t.Helper()
	var movements []*entity.StockMovement
	err := f.store.Run(context.Background(), func(r *uow.Repos) error {
		var err error
		movements, err = r.Movements.ListByReference(refType, refID)
		return err
	})
	require.NoError(t, err)
	return movements
}

// ──────────────────────────────────────────────────────────────────────────────
// ConfirmPick
// ──────────────────────────────────────────────────────────────────────────────

func TestConfirmPick_ConsumeReservaYEmiteSalida(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)
	f.seedLevel(t, "prod-1", "JHB", 10)
	ctx := context.Background()

	result := f.planAndExecute(t)
	require.Len(t, result.CreatedDocuments, 1)
	slipID := result.CreatedDocuments[0].ID

	require.NoError(t, f.uc.ConfirmPick(ctx, slipID, "user-1"))

	// ISSUE aplicado y reserva consumida en la misma transacción.
	level := f.level(t, "prod-1", "JHB")
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(5)))
	assert.True(t, level.Reserved.IsZero())

	movements := f.movementsByRef(t, entity.RefPickingSlip, slipID)
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementIssue, movements[0].Type)
	assert.Equal(t, "user-1", movements[0].Actor)

	// La propagación hija→padre avanza la línea y cierra el slip.
	assert.Equal(t, entity.LinePicked, f.line(t, "line-1").Status)
	var slip *entity.PickingSlip
	err := f.store.Run(ctx, func(r *uow.Repos) error {
		var err error
		slip, err = r.Slips.GetByID(slipID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentConfirmed, slip.Status)
}

func TestConfirmPick_NoConfirmaDosVeces(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)
	f.seedLevel(t, "prod-1", "JHB", 10)
	ctx := context.Background()

	slipID := f.planAndExecute(t).CreatedDocuments[0].ID
	require.NoError(t, f.uc.ConfirmPick(ctx, slipID, "user-1"))

	assert.ErrorIs(t, f.uc.ConfirmPick(ctx, slipID, "user-1"), domain.ErrConflict)
	level := f.level(t, "prod-1", "JHB")
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(5)), "la doble confirmación no vuelve a emitir stock")
}

func TestConfirmPick_SlipNoExistente(t *testing.T) {
	f := newFixture()
	assert.ErrorIs(t, f.uc.ConfirmPick(context.Background(), "no-existe", "user-1"), domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// ReceiveTransfer
// ──────────────────────────────────────────────────────────────────────────────

func TestReceiveTransfer_MovimientosPareados(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)
	f.seedLevel(t, "prod-1", "CPT", 10) // nada en JHB, excedente en CPT
	ctx := context.Background()

	result := f.planAndExecute(t)
	require.Len(t, result.Lines, 1)
	require.Equal(t, orchestration.ActionTransfer, result.Lines[0].Action)
	transferID := result.Lines[0].DocumentID

	require.NoError(t, f.uc.ReceiveTransfer(ctx, transferID, "user-1"))

	// Salida en origen (consumiendo la reserva) y entrada en destino.
	origin := f.level(t, "prod-1", "CPT")
	assert.True(t, origin.OnHand.Equal(decimal.NewFromInt(5)))
	assert.True(t, origin.Reserved.IsZero())
	dest := f.level(t, "prod-1", "JHB")
	assert.True(t, dest.OnHand.Equal(decimal.NewFromInt(5)))

	movements := f.movementsByRef(t, entity.RefTransferRequest, transferID)
	require.Len(t, movements, 2, "un TRANSFER_OUT y un TRANSFER_IN pareados")

	var transfer *entity.TransferRequest
	err := f.store.Run(ctx, func(r *uow.Repos) error {
		var err error
		transfer, err = r.Transfers.GetByID(transferID)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentReceived, transfer.Status)

	// Recibir dos veces es conflicto.
	assert.ErrorIs(t, f.uc.ReceiveTransfer(ctx, transferID, "user-1"), domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// CompleteJob
// ──────────────────────────────────────────────────────────────────────────────

func TestCompleteJob_ConsumeSnapshotYProduceSalida(t *testing.T) {
	f := newFixture()
	f.seedOrder(3, entity.TermsOpenAccount)
	f.store.SeedProduct(&entity.Product{ID: "prod-1", IsAssembly: true, PreferredSupplierID: "supp-1"})
	f.store.SeedBOM(&entity.BOM{
		ProductID: "prod-1",
		Lines: []*entity.BOMLine{
			{ComponentID: "comp-a", QuantityPer: decimal.NewFromInt(2)},
			{ComponentID: "comp-b", QuantityPer: decimal.NewFromInt(1)},
		},
	})
	f.seedLevel(t, "comp-a", "JHB", 6)
	f.seedLevel(t, "comp-b", "JHB", 3)
	ctx := context.Background()

	result := f.planAndExecute(t)
	require.Len(t, result.Lines, 1)
	require.Equal(t, orchestration.ActionManufacture, result.Lines[0].Action)
	jobID := result.Lines[0].DocumentID

	// Cambiar el BOM vivo después de crear el job no afecta el consumo:
	// el job consume según su snapshot congelado.
	f.store.SeedBOM(&entity.BOM{
		ProductID: "prod-1",
		Lines:     []*entity.BOMLine{{ComponentID: "comp-a", QuantityPer: decimal.NewFromInt(99)}},
	})

	require.NoError(t, f.uc.CompleteJob(ctx, jobID, "user-1"))

	assert.True(t, f.level(t, "comp-a", "JHB").OnHand.IsZero(), "2 por unidad x 3 unidades")
	assert.True(t, f.level(t, "comp-b", "JHB").OnHand.IsZero())
	assert.True(t, f.level(t, "comp-a", "JHB").Reserved.IsZero())
	assert.True(t, f.level(t, "prod-1", "JHB").OnHand.Equal(decimal.NewFromInt(3)), "la salida del ensamble entra al stock")

	// MANUFACTURE_OUT por componente + MANUFACTURE_IN por la salida.
	movements := f.movementsByRef(t, entity.RefJobCard, jobID)
	assert.Len(t, movements, 3)

	assert.Equal(t, entity.LinePicking, f.line(t, "line-1").Status, "el fabricado queda listo para alistar")

	assert.ErrorIs(t, f.uc.CompleteJob(ctx, jobID, "user-1"), domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// ShipOrder / DeliverOrder
// ──────────────────────────────────────────────────────────────────────────────

func TestShipAndDeliver_ProgresionMonotona(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)
	f.seedLevel(t, "prod-1", "JHB", 10)
	ctx := context.Background()

	slipID := f.planAndExecute(t).CreatedDocuments[0].ID
	require.NoError(t, f.uc.ConfirmPick(ctx, slipID, "user-1"))

	require.NoError(t, f.uc.ShipOrder(ctx, "order-1"))
	assert.Equal(t, entity.LineShipped, f.line(t, "line-1").Status)

	require.NoError(t, f.uc.DeliverOrder(ctx, "order-1"))
	assert.Equal(t, entity.LineDelivered, f.line(t, "line-1").Status)

	// Sin líneas que avanzar, el reintento es transición inválida.
	assert.ErrorIs(t, f.uc.ShipOrder(ctx, "order-1"), domain.ErrInvalidTransition)
}

func TestShipOrder_SinLineasAlistadas(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)

	err := f.uc.ShipOrder(context.Background(), "order-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "no se despacha lo que no se alistó")
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordPayment y cumplimiento automático
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordPayment_PagoParcialNoDispara(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsPrepaid)
	f.seedLevel(t, "prod-1", "JHB", 10)
	ctx := context.Background()

	result, err := f.uc.RecordPayment(ctx, "order-1", decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.Nil(t, result, "un pago parcial no dispara cumplimiento")

	var order *entity.SalesOrder
	err = f.store.Run(ctx, func(r *uow.Repos) error {
		var err error
		order, err = r.Orders.GetByID("order-1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, order.PaymentStatus)
	assert.True(t, f.level(t, "prod-1", "JHB").Reserved.IsZero())
}

func TestRecordPayment_PagoCompletoPrepaidDisparaCumplimiento(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsPrepaid)
	f.seedLevel(t, "prod-1", "JHB", 10)
	ctx := context.Background()

	_, err := f.uc.RecordPayment(ctx, "order-1", decimal.NewFromInt(40))
	require.NoError(t, err)
	result, err := f.uc.RecordPayment(ctx, "order-1", decimal.NewFromInt(60))
	require.NoError(t, err)

	require.NotNil(t, result, "completar el pago PREPAID dispara plan + ejecución")
	require.Len(t, result.CreatedDocuments, 1)
	assert.Equal(t, entity.RefPickingSlip, result.CreatedDocuments[0].Type)
	assert.Equal(t, entity.LinePicking, f.line(t, "line-1").Status)
	assert.True(t, f.level(t, "prod-1", "JHB").Reserved.Equal(decimal.NewFromInt(5)))
}

func TestRecordPayment_OpenAccountNoDispara(t *testing.T) {
	f := newFixture()
	f.seedOrder(5, entity.TermsOpenAccount)
	f.seedLevel(t, "prod-1", "JHB", 10)

	result, err := f.uc.RecordPayment(context.Background(), "order-1", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Nil(t, result, "con cuenta abierta el cumplimiento no depende del pago")
}

func TestRecordPayment_FalloDelCicloNoRevierteElPago(t *testing.T) {
	f := newFixture()
	// PREPAID sin stock ni proveedor: el ciclo automático no puede ejecutar.
	f.seedOrder(5, entity.TermsPrepaid)
	ctx := context.Background()

	result, err := f.uc.RecordPayment(ctx, "order-1", decimal.NewFromInt(100))
	require.NoError(t, err, "el fallo del auto-cumplimiento no es error del pago")
	assert.Nil(t, result)

	var order *entity.SalesOrder
	err = f.store.Run(ctx, func(r *uow.Repos) error {
		var err error
		order, err = r.Orders.GetByID("order-1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, order.PaymentStatus, "el pago queda registrado")
}

func TestRecordPayment_ValidaEntrada(t *testing.T) {
	f := newFixture()
	_, err := f.uc.RecordPayment(context.Background(), "order-1", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.uc.RecordPayment(context.Background(), "no-existe", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
