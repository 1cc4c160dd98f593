package memory

import (
	"context"
	"sync"

	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// Ensure Store implements uow.TxRunner.
var _ uow.TxRunner = (*Store)(nil)

// Store es la implementación en memoria del almacén completo, usada en tests.
// Un mutex global serializa las unidades de trabajo (equivalente al aislamiento
// estricto por clave del adaptador PostgreSQL) y un snapshot del estado al
// iniciar cada Run da semántica real de rollback: si fn falla, se restaura.
type Store struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	levels       map[string]*entity.StockLevel
	movements    []*entity.StockMovement
	reservations map[string]*entity.Reservation
	orders       map[string]*entity.SalesOrder
	pos          map[string]*entity.PurchaseOrder
	receipts     map[string]*entity.GoodsReceipt
	slips        map[string]*entity.PickingSlip
	transfers    map[string]*entity.TransferRequest
	jobs         map[string]*entity.JobCard
	products     map[string]*entity.Product
	boms         map[string]*entity.BOM
	locations    map[string]*entity.Location
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

func newState() *state {
	return &state{
		levels:       make(map[string]*entity.StockLevel),
		reservations: make(map[string]*entity.Reservation),
		orders:       make(map[string]*entity.SalesOrder),
		pos:          make(map[string]*entity.PurchaseOrder),
		receipts:     make(map[string]*entity.GoodsReceipt),
		slips:        make(map[string]*entity.PickingSlip),
		transfers:    make(map[string]*entity.TransferRequest),
		jobs:         make(map[string]*entity.JobCard),
		products:     make(map[string]*entity.Product),
		boms:         make(map[string]*entity.BOM),
		locations:    make(map[string]*entity.Location),
	}
}

// Run ejecuta fn como unidad de trabajo atómica: bajo el lock global, con
// snapshot previo; cualquier error restaura el estado completo (rollback).
func (s *Store) Run(_ context.Context, fn func(r *uow.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	repos := &uow.Repos{
		Levels:    &levelRepo{s: s.state},
		Movements: &movementRepo{s: s.state},
		Reserves:  &reservationRepo{s: s.state},
		Orders:    &orderRepo{s: s.state},
		POs:       &purchaseOrderRepo{s: s.state},
		Receipts:  &receiptRepo{s: s.state},
		Slips:     &slipRepo{s: s.state},
		Transfers: &transferRepo{s: s.state},
		Jobs:      &jobRepo{s: s.state},
		Products:  &productRepo{s: s.state},
		BOMs:      &bomRepo{s: s.state},
		Locations: &locationRepo{s: s.state},
	}
	if err := fn(repos); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// ── Seeds para tests ─────────────────────────────────────────────────────────

// SeedProduct carga un producto.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = cloneProduct(p)
}

// SeedLocation carga una ubicación.
func (s *Store) SeedLocation(l *entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.locations[l.Code] = cloneLocation(l)
}

// SeedBOM carga la lista de materiales de un ensamble.
func (s *Store) SeedBOM(b *entity.BOM) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.boms[b.ProductID] = cloneBOM(b)
}

// SeedOrder carga una orden de venta con sus líneas.
func (s *Store) SeedOrder(o *entity.SalesOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.orders[o.ID] = cloneOrder(o)
}

// SeedPurchaseOrder carga una orden de compra.
func (s *Store) SeedPurchaseOrder(po *entity.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.pos[po.ID] = clonePO(po)
}

// ── clones (rollback por snapshot) ───────────────────────────────────────────

func (st *state) clone() *state {
	c := newState()
	for k, v := range st.levels {
		c.levels[k] = cloneLevel(v)
	}
	c.movements = make([]*entity.StockMovement, len(st.movements))
	for i, m := range st.movements {
		mc := *m
		c.movements[i] = &mc
	}
	for k, v := range st.reservations {
		rc := *v
		c.reservations[k] = &rc
	}
	for k, v := range st.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range st.pos {
		c.pos[k] = clonePO(v)
	}
	for k, v := range st.receipts {
		c.receipts[k] = cloneReceipt(v)
	}
	for k, v := range st.slips {
		c.slips[k] = cloneSlip(v)
	}
	for k, v := range st.transfers {
		tc := *v
		c.transfers[k] = &tc
	}
	for k, v := range st.jobs {
		c.jobs[k] = cloneJob(v)
	}
	for k, v := range st.products {
		c.products[k] = cloneProduct(v)
	}
	for k, v := range st.boms {
		c.boms[k] = cloneBOM(v)
	}
	for k, v := range st.locations {
		c.locations[k] = cloneLocation(v)
	}
	return c
}

func cloneLevel(l *entity.StockLevel) *entity.StockLevel {
	c := *l
	return &c
}

func cloneOrder(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.Lines = make([]*entity.SalesOrderLine, len(o.Lines))
	for i, line := range o.Lines {
		lc := *line
		lc.Links = append([]entity.DocumentRef(nil), line.Links...)
		c.Lines[i] = &lc
	}
	return &c
}

func clonePO(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Lines = make([]*entity.PurchaseOrderLine, len(po.Lines))
	for i, line := range po.Lines {
		lc := *line
		c.Lines[i] = &lc
	}
	return &c
}

func cloneReceipt(gr *entity.GoodsReceipt) *entity.GoodsReceipt {
	c := *gr
	c.Lines = make([]*entity.GoodsReceiptLine, len(gr.Lines))
	for i, line := range gr.Lines {
		lc := *line
		c.Lines[i] = &lc
	}
	return &c
}

func cloneSlip(ps *entity.PickingSlip) *entity.PickingSlip {
	c := *ps
	c.Lines = make([]*entity.PickingSlipLine, len(ps.Lines))
	for i, line := range ps.Lines {
		lc := *line
		c.Lines[i] = &lc
	}
	return &c
}

func cloneJob(j *entity.JobCard) *entity.JobCard {
	c := *j
	c.Components = make([]*entity.JobComponent, len(j.Components))
	for i, comp := range j.Components {
		cc := *comp
		c.Components[i] = &cc
	}
	return &c
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func cloneBOM(b *entity.BOM) *entity.BOM {
	c := *b
	c.Lines = make([]*entity.BOMLine, len(b.Lines))
	for i, line := range b.Lines {
		lc := *line
		c.Lines[i] = &lc
	}
	return &c
}

func cloneLocation(l *entity.Location) *entity.Location {
	c := *l
	return &c
}
