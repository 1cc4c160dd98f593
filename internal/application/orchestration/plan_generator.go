package orchestration

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// PlanGenerator propone, por línea de orden, la acción de abastecimiento
// (PICK, TRANSFER, MANUFACTURE, PURCHASE) según disponibilidad del libro y
// estado de reservas. Solo lectura e idempotente: es seguro llamarlo
// repetidamente como preview.
type PlanGenerator struct {
	txRunner uow.TxRunner
	cfg      Config
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewPlanGenerator construye el planificador.
func NewPlanGenerator(txRunner uow.TxRunner, cfg Config, m *metrics.Metrics, log *logger.Logger) *PlanGenerator {
	return &PlanGenerator{txRunner: txRunner, cfg: cfg, metrics: m, log: log}
}

// GeneratePlan genera el plan de la orden. override, si no es nil, manda sobre
// la política resuelta (lo usa ventas para destrabar un SALES_DECISION).
func (g *PlanGenerator) GeneratePlan(ctx context.Context, orderID string, override *fulfillment.Policy) (*Plan, error) {
	var plan *Plan
	err := g.txRunner.Run(ctx, func(r *uow.Repos) error {
		var err error
		plan, err = g.generate(r, orderID, override)
		return err
	})
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.PlansGenerated.Inc()
		if plan.Held || plan.NeedsSalesDecision {
			g.metrics.PlansHeld.Inc()
		}
	}
	return plan, nil
}

func (g *PlanGenerator) generate(r *uow.Repos, orderID string, override *fulfillment.Policy) (*Plan, error) {
	order, err := r.Orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}

	policy := fulfillment.ResolvePolicy(order, g.cfg.CompanyDefaultPolicy)
	if override != nil && override.IsValid() {
		policy = *override
	}

	plan := &Plan{
		OrderID:     order.ID,
		Policy:      policy,
		GeneratedAt: time.Now(),
	}
	if policy == fulfillment.SalesDecision {
		// Resultado terminal válido: se marca la ambigüedad para decisión humana
		// en vez de auto-resolver. Las propuestas igual se calculan como preview.
		plan.NeedsSalesDecision = true
	}

	// Las líneas se procesan en orden estable de número de línea.
	lines := make([]*entity.SalesOrderLine, len(order.Lines))
	copy(lines, order.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	for _, line := range lines {
		required, err := g.outstandingQuantity(r, line)
		if err != nil {
			return nil, err
		}
		if !required.GreaterThan(decimal.Zero) {
			continue
		}
		proposals, err := g.planLine(r, order, line, required)
		if err != nil {
			return nil, err
		}
		plan.Lines = append(plan.Lines, proposals...)
	}

	// Bajo SHIP_COMPLETE cualquier faltante retiene el plan entero: se regeneran
	// las líneas sin picks parciales, todas marcadas Held (diferencia estructural
	// en la forma del plan, no un filtro a posteriori).
	if policy == fulfillment.ShipComplete && anyBackorder(plan.Lines) {
		plan.Held = true
		plan.Lines = holdLines(plan.Lines)
		if g.log != nil {
			g.log.Info().Str("order_id", order.ID).Msg("plan retenido por SHIP_COMPLETE con faltantes")
		}
	}
	return plan, nil
}

// outstandingQuantity calcula lo aún no cubierto de la línea: lo ordenado menos
// lo ya alistado o en vuelo. Las líneas ya alistadas no se replanifican.
func (g *PlanGenerator) outstandingQuantity(r *uow.Repos, line *entity.SalesOrderLine) (decimal.Decimal, error) {
	if line.StatusAtLeast(entity.LinePicked) {
		return decimal.Zero, nil
	}
	covered, err := openCoverage(r, line.ID)
	if err != nil {
		return decimal.Zero, err
	}
	outstanding := line.QuantityOrdered.Sub(covered)
	if outstanding.IsNegative() {
		return decimal.Zero, nil
	}
	return outstanding, nil
}

// openCoverage suma lo ya en vuelo para la línea de orden: listas de
// alistamiento abiertas, traslados, jobs y líneas de OC abiertas vinculadas.
// Lo usan el planificador (para no replanificar) y el ejecutor (para rechazar
// un reenvío del mismo plan).
func openCoverage(r *uow.Repos, lineID string) (decimal.Decimal, error) {
	covered := decimal.Zero

	slipLines, err := r.Slips.ListOpenByOrderLine(lineID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, sl := range slipLines {
		covered = covered.Add(sl.Quantity)
	}
	transfers, err := r.Transfers.ListOpenByOrderLine(lineID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, tr := range transfers {
		covered = covered.Add(tr.Quantity)
	}
	jobs, err := r.Jobs.ListOpenByOrderLine(lineID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, job := range jobs {
		covered = covered.Add(job.Quantity)
	}
	poLines, err := r.POs.ListOpenBySourceLine(lineID)
	if err != nil {
		return decimal.Zero, err
	}
	for _, pl := range poLines {
		covered = covered.Add(pl.OutstandingQuantity())
	}
	return covered, nil
}

// planLine aplica la escalera de decisión sobre una línea:
//  1. disponibilidad local suficiente → PICK completo;
//  2. excedente en otra ubicación y política lo permite → TRANSFER del faltante + PICK local;
//  3. ensamble con componentes disponibles → MANUFACTURE del faltante (+ PICK local);
//  4. PURCHASE del faltante; lo no cubrible queda como backorder.
func (g *PlanGenerator) planLine(r *uow.Repos, order *entity.SalesOrder, line *entity.SalesOrderLine, required decimal.Decimal) ([]*PlanLine, error) {
	level, err := r.Levels.Get(line.ProductID, order.Location)
	if err != nil {
		return nil, err
	}
	available := level.Available()

	if available.GreaterThanOrEqual(required) {
		return []*PlanLine{{
			OrderLineID:       line.ID,
			Action:            ActionPick,
			SourceLocation:    order.Location,
			Quantity:          required,
			AvailableSnapshot: available,
		}}, nil
	}

	localPortion := available
	if localPortion.IsNegative() {
		localPortion = decimal.Zero
	}
	shortfall := required.Sub(localPortion)

	var proposals []*PlanLine
	if localPortion.GreaterThan(decimal.Zero) {
		proposals = append(proposals, &PlanLine{
			OrderLineID:       line.ID,
			Action:            ActionPick,
			SourceLocation:    order.Location,
			Quantity:          localPortion,
			AvailableSnapshot: available,
		})
	}

	if g.cfg.AllowCrossLocation {
		alternate, err := g.surplusLocation(r, line.ProductID, order.Location, shortfall)
		if err != nil {
			return nil, err
		}
		if alternate != nil {
			proposals = append(proposals, &PlanLine{
				OrderLineID:       line.ID,
				Action:            ActionTransfer,
				SourceLocation:    alternate.Location,
				Quantity:          shortfall,
				AvailableSnapshot: alternate.Available(),
			})
			return proposals, nil
		}
	}

	canBuild, err := g.assemblyBuildable(r, line.ProductID, order.Location, shortfall)
	if err != nil {
		return nil, err
	}
	if canBuild {
		proposals = append(proposals, &PlanLine{
			OrderLineID:    line.ID,
			Action:         ActionManufacture,
			SourceLocation: order.Location,
			Quantity:       shortfall,
		})
		return proposals, nil
	}

	// Último recurso: comprar el faltante. Queda como backorder hasta recibirse.
	proposals = append(proposals, &PlanLine{
		OrderLineID:       line.ID,
		Action:            ActionPurchase,
		SourceLocation:    order.Location,
		Quantity:          shortfall,
		BackorderQuantity: shortfall,
	})
	return proposals, nil
}

// surplusLocation busca otra ubicación cuyo Available cubra el faltante completo.
// Entre varias candidatas gana la de mayor disponibilidad.
func (g *PlanGenerator) surplusLocation(r *uow.Repos, productID, exclude string, need decimal.Decimal) (*entity.StockLevel, error) {
	levels, err := r.Levels.ListByProduct(productID)
	if err != nil {
		return nil, err
	}
	var best *entity.StockLevel
	for _, lvl := range levels {
		if lvl.Location == exclude {
			continue
		}
		if lvl.Available().GreaterThanOrEqual(need) {
			if best == nil || lvl.Available().GreaterThan(best.Available()) {
				best = lvl
			}
		}
	}
	return best, nil
}

// assemblyBuildable indica si el producto es un ensamble con BOM y todos sus
// componentes tienen disponibilidad local para fabricar la cantidad pedida.
func (g *PlanGenerator) assemblyBuildable(r *uow.Repos, productID, location string, qty decimal.Decimal) (bool, error) {
	product, err := r.Products.GetByID(productID)
	if err != nil {
		return false, err
	}
	if product == nil || !product.IsAssembly {
		return false, nil
	}
	bom, err := r.BOMs.GetByProduct(productID)
	if err != nil {
		return false, err
	}
	if bom == nil || len(bom.Lines) == 0 {
		return false, nil
	}
	for _, bl := range bom.Lines {
		lvl, err := r.Levels.Get(bl.ComponentID, location)
		if err != nil {
			return false, err
		}
		if lvl.Available().LessThan(bl.QuantityPer.Mul(qty)) {
			return false, nil
		}
	}
	return true, nil
}

func anyBackorder(lines []*PlanLine) bool {
	for _, pl := range lines {
		if pl.BackorderQuantity.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

// holdLines colapsa las propuestas a una línea de plan por línea de orden,
// todas Held y sin picks parciales.
func holdLines(lines []*PlanLine) []*PlanLine {
	type agg struct {
		primary   *PlanLine
		quantity  decimal.Decimal
		backorder decimal.Decimal
	}
	order := make([]string, 0, len(lines))
	byLine := make(map[string]*agg)
	for _, pl := range lines {
		a, ok := byLine[pl.OrderLineID]
		if !ok {
			a = &agg{primary: pl}
			byLine[pl.OrderLineID] = a
			order = append(order, pl.OrderLineID)
		}
		// La acción representativa es la que resuelve el faltante (no el pick local).
		if pl.Action != ActionPick {
			a.primary = pl
		}
		a.quantity = a.quantity.Add(pl.Quantity)
		a.backorder = a.backorder.Add(pl.BackorderQuantity)
	}
	held := make([]*PlanLine, 0, len(order))
	for _, lineID := range order {
		a := byLine[lineID]
		held = append(held, &PlanLine{
			OrderLineID:       lineID,
			Action:            a.primary.Action,
			SourceLocation:    a.primary.SourceLocation,
			Quantity:          a.quantity,
			BackorderQuantity: a.backorder,
			Held:              true,
		})
	}
	return held
}
