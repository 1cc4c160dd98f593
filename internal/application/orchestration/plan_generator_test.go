package orchestration_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/internal/infrastructure/memory"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var defaultCfg = orchestration.Config{
	CompanyDefaultPolicy: fulfillment.ShipPartial,
	AllowCrossLocation:   true,
}

func newGenerator(store *memory.Store, cfg orchestration.Config) *orchestration.PlanGenerator {
	return orchestration.NewPlanGenerator(store, cfg, metrics.New(), logger.Nop())
}

// seedOrder crea una orden de una línea por qty unidades de prod-1 despachada desde JHB.
func seedOrder(store *memory.Store, qty int64, policyOverride string) *entity.SalesOrder {
	order := &entity.SalesOrder{
		ID:             "order-1",
		CompanyID:      "co-1",
		CustomerID:     "cust-1",
		Location:       "JHB",
		PolicyOverride: policyOverride,
		PaymentTerms:   entity.TermsOpenAccount,
		PaymentStatus:  entity.PaymentUnpaid,
		Total:          decimal.NewFromInt(100),
		Lines: []*entity.SalesOrderLine{{
			ID:              "line-1",
			OrderID:         "order-1",
			LineNumber:      1,
			ProductID:       "prod-1",
			QuantityOrdered: decimal.NewFromInt(qty),
			Status:          entity.LinePending,
		}},
	}
	store.SeedOrder(order)
	return order
}

func seedLevel(t *testing.T, store *memory.Store, productID, location string, onHand, reserved int64) {
	t.Helper()
	err := store.Run(context.Background(), func(r *uow.Repos) error {
		lvl := entity.NewStockLevel(productID, location)
		lvl.OnHand = decimal.NewFromInt(onHand)
		lvl.Reserved = decimal.NewFromInt(reserved)
		return r.Levels.Upsert(lvl)
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escalera de decisión por línea
// ──────────────────────────────────────────────────────────────────────────────

func TestGeneratePlan_DisponibilidadLocalCompleta(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	require.Len(t, plan.Lines, 1)
	pl := plan.Lines[0]
	assert.Equal(t, orchestration.ActionPick, pl.Action)
	assert.Equal(t, "JHB", pl.SourceLocation)
	assert.True(t, pl.Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, pl.BackorderQuantity.IsZero())
	assert.True(t, pl.AvailableSnapshot.Equal(decimal.NewFromInt(10)), "el snapshot guarda lo visto al planear")
	assert.False(t, plan.Held)
	assert.Equal(t, fulfillment.ShipPartial, plan.Policy)
}

func TestGeneratePlan_ExcedenteEnOtraUbicacion(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 2, 0)
	seedLevel(t, store, "prod-1", "CPT", 10, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	// Pick local de lo que hay + traslado del faltante desde CPT.
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, orchestration.ActionPick, plan.Lines[0].Action)
	assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, orchestration.ActionTransfer, plan.Lines[1].Action)
	assert.Equal(t, "CPT", plan.Lines[1].SourceLocation)
	assert.True(t, plan.Lines[1].Quantity.Equal(decimal.NewFromInt(3)))
}

func TestGeneratePlan_SinTrasladosSiLaConfigLoProhibe(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	store.SeedProduct(&entity.Product{ID: "prod-1", PreferredSupplierID: "supp-1"})
	seedLevel(t, store, "prod-1", "JHB", 2, 0)
	seedLevel(t, store, "prod-1", "CPT", 10, 0)

	cfg := orchestration.Config{CompanyDefaultPolicy: fulfillment.ShipPartial, AllowCrossLocation: false}
	plan, err := newGenerator(store, cfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	// Con traslados prohibidos el faltante cae a compra aunque CPT tenga excedente.
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, orchestration.ActionPurchase, plan.Lines[1].Action)
	assert.True(t, plan.Lines[1].BackorderQuantity.Equal(decimal.NewFromInt(3)))
}

func TestGeneratePlan_EnsambleFabricable(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 3, "")
	store.SeedProduct(&entity.Product{ID: "prod-1", IsAssembly: true, PreferredSupplierID: "supp-1"})
	store.SeedBOM(&entity.BOM{
		ProductID: "prod-1",
		Lines: []*entity.BOMLine{
			{ComponentID: "comp-a", QuantityPer: decimal.NewFromInt(2)},
			{ComponentID: "comp-b", QuantityPer: decimal.NewFromInt(1)},
		},
	})
	// Sin stock del ensamble, pero componentes suficientes para 3 unidades.
	seedLevel(t, store, "comp-a", "JHB", 6, 0)
	seedLevel(t, store, "comp-b", "JHB", 3, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	require.Len(t, plan.Lines, 1)
	assert.Equal(t, orchestration.ActionManufacture, plan.Lines[0].Action)
	assert.True(t, plan.Lines[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, plan.Lines[0].BackorderQuantity.IsZero())
}

func TestGeneratePlan_EnsambleSinComponentesCaeACompra(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 3, "")
	store.SeedProduct(&entity.Product{ID: "prod-1", IsAssembly: true, PreferredSupplierID: "supp-1"})
	store.SeedBOM(&entity.BOM{
		ProductID: "prod-1",
		Lines:     []*entity.BOMLine{{ComponentID: "comp-a", QuantityPer: decimal.NewFromInt(2)}},
	})
	seedLevel(t, store, "comp-a", "JHB", 5, 0) // alcanza para 2.5, no para 3

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	require.Len(t, plan.Lines, 1)
	assert.Equal(t, orchestration.ActionPurchase, plan.Lines[0].Action)
	assert.True(t, plan.Lines[0].BackorderQuantity.Equal(decimal.NewFromInt(3)))
}

func TestGeneratePlan_UltimoRecursoCompra(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	store.SeedProduct(&entity.Product{ID: "prod-1", PreferredSupplierID: "supp-1"})

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	require.Len(t, plan.Lines, 1)
	pl := plan.Lines[0]
	assert.Equal(t, orchestration.ActionPurchase, pl.Action)
	assert.True(t, pl.Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, pl.BackorderQuantity.Equal(decimal.NewFromInt(5)), "lo no cubrible queda como backorder")
}

// ──────────────────────────────────────────────────────────────────────────────
// Políticas
// ──────────────────────────────────────────────────────────────────────────────

func TestGeneratePlan_ShipCompleteRetieneElPlanEntero(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, string(fulfillment.ShipComplete))
	store.SeedProduct(&entity.Product{ID: "prod-1", PreferredSupplierID: "supp-1"})
	seedLevel(t, store, "prod-1", "JHB", 2, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	assert.True(t, plan.Held, "cualquier faltante retiene el plan entero")
	// Forma estructural distinta: una sola línea colapsada por línea de orden,
	// sin picks parciales, toda retenida.
	require.Len(t, plan.Lines, 1)
	pl := plan.Lines[0]
	assert.True(t, pl.Held)
	assert.True(t, pl.Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, pl.BackorderQuantity.Equal(decimal.NewFromInt(3)))
	assert.NotEqual(t, orchestration.ActionPick, pl.Action, "la acción representativa es la que resuelve el faltante")
}

func TestGeneratePlan_SalesDecisionMarcaSinAutoResolver(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, string(fulfillment.SalesDecision))
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)

	assert.True(t, plan.NeedsSalesDecision, "resultado terminal válido: ambigüedad marcada para humano")
	assert.Len(t, plan.Lines, 1, "las propuestas igual se calculan como preview")
}

func TestGeneratePlan_OverrideDestrabaLaDecision(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, string(fulfillment.SalesDecision))
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	override := fulfillment.ShipPartial
	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", &override)
	require.NoError(t, err)

	assert.False(t, plan.NeedsSalesDecision)
	assert.Equal(t, fulfillment.ShipPartial, plan.Policy)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cobertura por documentos abiertos (no replanificar lo ya en vuelo)
// ──────────────────────────────────────────────────────────────────────────────

func TestGeneratePlan_NoReplanificaLoCubierto(t *testing.T) {
	store := memory.NewStore()
	seedOrder(store, 5, "")
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	// Una lista de alistamiento abierta ya cubre la línea completa.
	err := store.Run(context.Background(), func(r *uow.Repos) error {
		return r.Slips.Create(&entity.PickingSlip{
			ID: "slip-1", OrderID: "order-1", Location: "JHB", Status: entity.DocumentOpen,
			Lines: []*entity.PickingSlipLine{{
				ID: "sl-1", PickingSlipID: "slip-1", OrderLineID: "line-1",
				ProductID: "prod-1", Quantity: decimal.NewFromInt(5),
			}},
		})
	})
	require.NoError(t, err)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Lines, "una línea cubierta por documentos abiertos no se replanifica")
}

func TestGeneratePlan_NoReplanificaLineasAlistadas(t *testing.T) {
	store := memory.NewStore()
	order := seedOrder(store, 5, "")
	order.Lines[0].Status = entity.LinePicked
	store.SeedOrder(order)
	seedLevel(t, store, "prod-1", "JHB", 10, 0)

	plan, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "order-1", nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Lines)
}

func TestGeneratePlan_OrdenNoExistente(t *testing.T) {
	store := memory.NewStore()
	_, err := newGenerator(store, defaultCfg).GeneratePlan(context.Background(), "no-existe", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
