package orchestration_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/internal/infrastructure/memory"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

func newExecutor(store *memory.Store) *orchestration.Executor {
	reserves := reservation.NewUseCase(store, metrics.New())
	return orchestration.NewExecutor(store, reserves, metrics.New(), logger.Nop())
}

func getOrderLine(t *testing.T, store *memory.Store, lineID string) *entity.SalesOrderLine {
	t.Helper()
	var line *entity.SalesOrderLine
	err := store.Run(context.Background(), func(r *uow.Repos) error {
		var err error
		line, err = r.Orders.GetLineByID(lineID)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, line)
	return line
}

func getLevel(t *testing.T, store *memory.Store, productID, location string) *entity.StockLevel {
	t.Helper()
	var lvl *entity.StockLevel
	err := store.Run(context.Background(), func(r *uow.Repos) error {
		var err error
		lvl, err = r.Levels.Get(productID, location)
		return err
	})
	require.NoError(t, err)
	return lvl
}

// ──────────────────────────────────────────────────────────────────────────────
// ExecutePlan: camino feliz PICK
// ──────────────────────────────────────────────────────────────────────────────

func TestExecutePlan_PickCreaSlipYReservaHard(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 10, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)

	result, err := newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	require.NoError(t, err)

	require.Len(t, result.CreatedDocuments, 1)
	assert.Equal(t, entity.RefPickingSlip, result.CreatedDocuments[0].Type)

	// La reserva HARD compromete el stock del pick.
	level := getLevel(t, store, "prod-1", "JHB")
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(5)))
	assert.True(t, level.OnHand.Equal(decimal.NewFromInt(10)), "ejecutar no mueve OnHand; eso pasa al confirmar el pick")

	// La línea avanza a PICKING, queda vinculada y sin backorder.
	line := getOrderLine(t, store, "line-1")
	assert.Equal(t, entity.LinePicking, line.Status)
	assert.True(t, line.HasLink(entity.RefPickingSlip))
	assert.True(t, line.QuantityBackorder.IsZero())

	// El slip referencia la línea y su reserva.
	var slip *entity.PickingSlip
	err = store.Run(ctx, func(r *uow.Repos) error {
		var err error
		slip, err = r.Slips.GetByID(result.CreatedDocuments[0].ID)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, slip)
	assert.Equal(t, entity.DocumentOpen, slip.Status)
	require.Len(t, slip.Lines, 1)
	assert.Equal(t, "line-1", slip.Lines[0].OrderLineID)
	assert.NotEmpty(t, slip.Lines[0].ReservationID)
}

// ──────────────────────────────────────────────────────────────────────────────
// ExecutePlan: PURCHASE crea OC borrador vinculada
// ──────────────────────────────────────────────────────────────────────────────

func TestExecutePlan_PurchaseCreaOCBorrador(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	store.SeedProduct(&entity.Product{ID: "prod-1", PreferredSupplierID: "supp-1"})
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)

	result, err := newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	require.NoError(t, err)

	require.Len(t, result.CreatedDocuments, 1)
	assert.Equal(t, entity.RefPurchaseOrder, result.CreatedDocuments[0].Type)

	var po *entity.PurchaseOrder
	err = store.Run(ctx, func(r *uow.Repos) error {
		var err error
		po, err = r.POs.GetByID(result.CreatedDocuments[0].ID)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, po)
	assert.Equal(t, entity.POStatusDraft, po.Status)
	assert.Equal(t, "supp-1", po.SupplierID)
	require.Len(t, po.Lines, 1)
	assert.Equal(t, entity.RefOrderLine, po.Lines[0].SourceType)
	assert.Equal(t, "line-1", po.Lines[0].SourceID)
	assert.True(t, po.Lines[0].QuantityOrdered.Equal(decimal.NewFromInt(5)))

	// El backorder persistido es lo pendiente en la OC abierta, sin doble conteo.
	line := getOrderLine(t, store, "line-1")
	assert.True(t, line.QuantityBackorder.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, entity.LinePending, line.Status, "sin pick la línea sigue PENDING")
}

// ──────────────────────────────────────────────────────────────────────────────
// Guardas: Held, stale, conflicto de vínculo
// ──────────────────────────────────────────────────────────────────────────────

func TestExecutePlan_RechazaPlanRetenido(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, string(fulfillment.ShipComplete))
	store.SeedProduct(&entity.Product{ID: "prod-1", PreferredSupplierID: "supp-1"})
	seedLevel(t, store, "prod-1", "JHB", 2, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)
	require.True(t, plan.Held)

	_, err = newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	assert.ErrorIs(t, err, domain.ErrPlanHeld)
}

func TestExecutePlan_RechazaSalesDecision(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, string(fulfillment.SalesDecision))
	seedLevel(t, store, "prod-1", "JHB", 10, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)
	require.True(t, plan.NeedsSalesDecision)

	_, err = newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	assert.ErrorIs(t, err, domain.ErrPlanHeld)
}

func TestExecutePlan_StaleSiLaDisponibilidadEmpeoro(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 10, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)

	// Entre el preview y el commit alguien más se llevó el stock.
	seedLevel(t, store, "prod-1", "JHB", 3, 0)

	_, err = newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	require.ErrorIs(t, err, domain.ErrPlanStale)

	// Todo-o-nada: el fallo no deja slip, reserva ni avance de línea.
	level := getLevel(t, store, "prod-1", "JHB")
	assert.True(t, level.Reserved.IsZero())
	line := getOrderLine(t, store, "line-1")
	assert.Equal(t, entity.LinePending, line.Status)
	assert.Empty(t, line.Links)
}

func TestExecutePlan_RollbackAtomicoConVariasLineas(t *testing.T) {
	store := memory.NewStore()
	store.SeedOrder(&entity.SalesOrder{
		ID: "order-1", CompanyID: "co-1", Location: "JHB",
		PaymentTerms: entity.TermsOpenAccount,
		Lines: []*entity.SalesOrderLine{
			{ID: "line-1", OrderID: "order-1", LineNumber: 1, ProductID: "prod-1", QuantityOrdered: decimal.NewFromInt(5), Status: entity.LinePending},
			{ID: "line-2", OrderID: "order-1", LineNumber: 2, ProductID: "prod-2", QuantityOrdered: decimal.NewFromInt(4), Status: entity.LinePending},
		},
	})
	seedLevel(t, store, "prod-1", "JHB", 10, 0)
	seedLevel(t, store, "prod-2", "JHB", 10, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)
	require.Len(t, plan.Lines, 2)

	// La segunda línea se vuelve stale; la primera ya se había reservado.
	seedLevel(t, store, "prod-2", "JHB", 1, 0)

	_, err = newExecutor(store).ExecutePlan(ctx, plan, "user-1")
	require.ErrorIs(t, err, domain.ErrPlanStale)

	assert.True(t, getLevel(t, store, "prod-1", "JHB").Reserved.IsZero(), "la reserva de la primera línea también se revierte")
	assert.Equal(t, entity.LinePending, getOrderLine(t, store, "line-1").Status)
}

func TestExecutePlan_ReenvioDelMismoPlanNoDuplica(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 20, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)

	exec := newExecutor(store)
	_, err = exec.ExecutePlan(ctx, plan, "user-1")
	require.NoError(t, err)

	// Reintento HTTP con el mismo plan en el body: la línea ya está cubierta
	// por el slip abierto, así que el reenvío es conflicto aunque sobre stock.
	_, err = exec.ExecutePlan(ctx, plan, "user-1")
	require.ErrorIs(t, err, domain.ErrDocumentLinkConflict)

	// Ni reserva ni slip duplicados.
	level := getLevel(t, store, "prod-1", "JHB")
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(5)),
		"la reserva debe seguir en lo ordenado, no duplicarse")

	var slipLines []*entity.PickingSlipLine
	err = store.Run(ctx, func(r *uow.Repos) error {
		var err error
		slipLines, err = r.Slips.ListOpenByOrderLine("line-1")
		return err
	})
	require.NoError(t, err)
	assert.Len(t, slipLines, 1, "una sola línea de alistamiento abierta por línea de orden")
}

func TestExecutePlan_DosEjecucionesConcurrentesUnaGana(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 5, 0)
	ctx := context.Background()

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(ctx, "order-1", nil)
	require.NoError(t, err)

	exec := newExecutor(store)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := exec.ExecutePlan(ctx, plan, "user-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var committed, rejected int
	for err := range errs {
		if err == nil {
			committed++
			continue
		}
		rejected++
		assert.True(t, errors.Is(err, domain.ErrPlanStale) || errors.Is(err, domain.ErrDocumentLinkConflict),
			"el perdedor debe fallar la re-validación, no con otro error: %v", err)
	}
	assert.Equal(t, 1, committed, "exactamente una ejecución confirma")
	assert.Equal(t, 1, rejected, "exactamente una ejecución es rechazada")

	level := getLevel(t, store, "prod-1", "JHB")
	assert.True(t, level.Reserved.Equal(decimal.NewFromInt(5)), "solo la ganadora reserva")
}

func TestExecutePlan_ConflictoConLineaYaAlistada(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, 5, "")
	order.Lines[0].Status = entity.LinePicked
	store.SeedOrder(order)
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	plan := &orchestration.Plan{
		OrderID: "order-1",
		Policy:  fulfillment.ShipPartial,
		Lines: []*orchestration.PlanLine{{
			OrderLineID: "line-1", Action: orchestration.ActionPick,
			SourceLocation: "JHB", Quantity: decimal.NewFromInt(5),
		}},
	}
	_, err := newExecutor(store).ExecutePlan(context.Background(), plan, "user-1")
	assert.ErrorIs(t, err, domain.ErrDocumentLinkConflict, "re-vincular una línea cumplida es conflicto, no staleness")
}

func TestExecutePlan_ValidaEntrada(t *testing.T) {
	exec := newExecutor(memory.NewStore())
	ctx := context.Background()

	_, err := exec.ExecutePlan(ctx, nil, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = exec.ExecutePlan(ctx, &orchestration.Plan{OrderID: "order-1"}, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "plan sin líneas no es ejecutable")
}
