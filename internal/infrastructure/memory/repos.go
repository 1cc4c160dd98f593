package memory

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

// Verificación de cumplimiento de los puertos.
var (
	_ repository.StockLevelRepository      = (*levelRepo)(nil)
	_ repository.StockMovementRepository   = (*movementRepo)(nil)
	_ repository.ReservationRepository     = (*reservationRepo)(nil)
	_ repository.SalesOrderRepository      = (*orderRepo)(nil)
	_ repository.PurchaseOrderRepository   = (*purchaseOrderRepo)(nil)
	_ repository.GoodsReceiptRepository    = (*receiptRepo)(nil)
	_ repository.PickingSlipRepository     = (*slipRepo)(nil)
	_ repository.TransferRequestRepository = (*transferRepo)(nil)
	_ repository.JobCardRepository         = (*jobRepo)(nil)
	_ repository.ProductRepository         = (*productRepo)(nil)
	_ repository.BOMRepository             = (*bomRepo)(nil)
	_ repository.LocationRepository        = (*locationRepo)(nil)
)

func levelKey(productID, location string) string {
	return productID + "|" + location
}

// ── stock levels ─────────────────────────────────────────────────────────────

type levelRepo struct{ s *state }

func (r *levelRepo) Get(productID, location string) (*entity.StockLevel, error) {
	if lvl, ok := r.s.levels[levelKey(productID, location)]; ok {
		return lvl, nil
	}
	return entity.NewStockLevel(productID, location), nil
}

// GetForUpdate es idéntico a Get: el lock global del Store ya serializa.
func (r *levelRepo) GetForUpdate(productID, location string) (*entity.StockLevel, error) {
	return r.Get(productID, location)
}

func (r *levelRepo) Upsert(level *entity.StockLevel) error {
	r.s.levels[levelKey(level.ProductID, level.Location)] = level
	return nil
}

func (r *levelRepo) ListByProduct(productID string) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	for _, lvl := range r.s.levels {
		if lvl.ProductID == productID {
			out = append(out, lvl)
		}
	}
	return out, nil
}

// ── stock movements ──────────────────────────────────────────────────────────

type movementRepo struct{ s *state }

func (r *movementRepo) Append(movement *entity.StockMovement) error {
	r.s.movements = append(r.s.movements, movement)
	return nil
}

func (r *movementRepo) GetByID(id string) (*entity.StockMovement, error) {
	for _, m := range r.s.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (r *movementRepo) ListByKey(productID, location string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ProductID == productID && m.Location == location {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var filtered []*entity.StockMovement
	for _, m := range r.s.movements {
		if m.Location != location {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		filtered = append(filtered, m)
	}
	if offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[offset:]
	if limit > 0 && limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered, nil
}

// ── reservations ─────────────────────────────────────────────────────────────

type reservationRepo struct{ s *state }

func (r *reservationRepo) Create(reservation *entity.Reservation) error {
	if _, ok := r.s.reservations[reservation.ID]; ok {
		return domain.ErrConflict
	}
	r.s.reservations[reservation.ID] = reservation
	return nil
}

func (r *reservationRepo) GetByID(id string) (*entity.Reservation, error) {
	return r.s.reservations[id], nil
}

func (r *reservationRepo) GetForUpdate(id string) (*entity.Reservation, error) {
	return r.s.reservations[id], nil
}

func (r *reservationRepo) Update(reservation *entity.Reservation) error {
	if _, ok := r.s.reservations[reservation.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.reservations[reservation.ID] = reservation
	return nil
}

func (r *reservationRepo) ListActiveByKey(productID, location string) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.ProductID == productID && res.Location == location && res.IsActive() {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *reservationRepo) ListBySource(sourceType, sourceID string) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.SourceType == sourceType && res.SourceID == sourceID {
			out = append(out, res)
		}
	}
	return out, nil
}

// ── sales orders ─────────────────────────────────────────────────────────────

type orderRepo struct{ s *state }

func (r *orderRepo) Create(order *entity.SalesOrder) error {
	if _, ok := r.s.orders[order.ID]; ok {
		return domain.ErrConflict
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r *orderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	return r.s.orders[id], nil
}

func (r *orderRepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) {
	return r.s.orders[id], nil
}

func (r *orderRepo) Update(order *entity.SalesOrder) error {
	if _, ok := r.s.orders[order.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r *orderRepo) UpdateLine(line *entity.SalesOrderLine) error {
	for _, order := range r.s.orders {
		for i, ol := range order.Lines {
			if ol.ID == line.ID {
				order.Lines[i] = line
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *orderRepo) GetLineByID(lineID string) (*entity.SalesOrderLine, error) {
	for _, order := range r.s.orders {
		for _, ol := range order.Lines {
			if ol.ID == lineID {
				return ol, nil
			}
		}
	}
	return nil, nil
}

// ── purchase orders ──────────────────────────────────────────────────────────

type purchaseOrderRepo struct{ s *state }

func (r *purchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	if _, ok := r.s.pos[po.ID]; ok {
		return domain.ErrConflict
	}
	r.s.pos[po.ID] = po
	return nil
}

func (r *purchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	return r.s.pos[id], nil
}

func (r *purchaseOrderRepo) GetByIDForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.s.pos[id], nil
}

func (r *purchaseOrderRepo) Update(po *entity.PurchaseOrder) error {
	if _, ok := r.s.pos[po.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.pos[po.ID] = po
	return nil
}

func (r *purchaseOrderRepo) UpdateLine(line *entity.PurchaseOrderLine) error {
	for _, po := range r.s.pos {
		for i, pl := range po.Lines {
			if pl.ID == line.ID {
				po.Lines[i] = line
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *purchaseOrderRepo) ListOpenBySourceLine(orderLineID string) ([]*entity.PurchaseOrderLine, error) {
	var out []*entity.PurchaseOrderLine
	for _, po := range r.s.pos {
		if po.Status == entity.POStatusCancelled || po.Status == entity.POStatusClosed {
			continue
		}
		for _, pl := range po.Lines {
			if pl.SourceType == entity.RefOrderLine && pl.SourceID == orderLineID &&
				pl.OutstandingQuantity().GreaterThan(decimal.Zero) {
				out = append(out, pl)
			}
		}
	}
	return out, nil
}

// ── goods receipts ───────────────────────────────────────────────────────────

type receiptRepo struct{ s *state }

func (r *receiptRepo) Create(receipt *entity.GoodsReceipt) error {
	if _, ok := r.s.receipts[receipt.ID]; ok {
		return domain.ErrConflict
	}
	r.s.receipts[receipt.ID] = receipt
	return nil
}

func (r *receiptRepo) GetByID(id string) (*entity.GoodsReceipt, error) {
	return r.s.receipts[id], nil
}

func (r *receiptRepo) ListByPurchaseOrder(purchaseOrderID string) ([]*entity.GoodsReceipt, error) {
	var out []*entity.GoodsReceipt
	for _, gr := range r.s.receipts {
		if gr.PurchaseOrderID == purchaseOrderID {
			out = append(out, gr)
		}
	}
	return out, nil
}

// ── picking slips ────────────────────────────────────────────────────────────

type slipRepo struct{ s *state }

func (r *slipRepo) Create(slip *entity.PickingSlip) error {
	if _, ok := r.s.slips[slip.ID]; ok {
		return domain.ErrConflict
	}
	r.s.slips[slip.ID] = slip
	return nil
}

func (r *slipRepo) GetByID(id string) (*entity.PickingSlip, error) {
	return r.s.slips[id], nil
}

func (r *slipRepo) GetByIDForUpdate(id string) (*entity.PickingSlip, error) {
	return r.s.slips[id], nil
}

func (r *slipRepo) Update(slip *entity.PickingSlip) error {
	if _, ok := r.s.slips[slip.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.slips[slip.ID] = slip
	return nil
}

func (r *slipRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.PickingSlipLine, error) {
	var out []*entity.PickingSlipLine
	for _, slip := range r.s.slips {
		if slip.Status != entity.DocumentOpen {
			continue
		}
		for _, sl := range slip.Lines {
			if sl.OrderLineID == orderLineID {
				out = append(out, sl)
			}
		}
	}
	return out, nil
}

// ── transfer requests ────────────────────────────────────────────────────────

type transferRepo struct{ s *state }

func (r *transferRepo) Create(transfer *entity.TransferRequest) error {
	if _, ok := r.s.transfers[transfer.ID]; ok {
		return domain.ErrConflict
	}
	r.s.transfers[transfer.ID] = transfer
	return nil
}

func (r *transferRepo) GetByID(id string) (*entity.TransferRequest, error) {
	return r.s.transfers[id], nil
}

func (r *transferRepo) GetByIDForUpdate(id string) (*entity.TransferRequest, error) {
	return r.s.transfers[id], nil
}

func (r *transferRepo) Update(transfer *entity.TransferRequest) error {
	if _, ok := r.s.transfers[transfer.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.transfers[transfer.ID] = transfer
	return nil
}

func (r *transferRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.TransferRequest, error) {
	var out []*entity.TransferRequest
	for _, tr := range r.s.transfers {
		if tr.OrderLineID == orderLineID && tr.Status == entity.DocumentOpen {
			out = append(out, tr)
		}
	}
	return out, nil
}

// ── job cards ────────────────────────────────────────────────────────────────

type jobRepo struct{ s *state }

func (r *jobRepo) Create(job *entity.JobCard) error {
	if _, ok := r.s.jobs[job.ID]; ok {
		return domain.ErrConflict
	}
	r.s.jobs[job.ID] = job
	return nil
}

func (r *jobRepo) GetByID(id string) (*entity.JobCard, error) {
	return r.s.jobs[id], nil
}

func (r *jobRepo) GetByIDForUpdate(id string) (*entity.JobCard, error) {
	return r.s.jobs[id], nil
}

func (r *jobRepo) Update(job *entity.JobCard) error {
	if _, ok := r.s.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.jobs[job.ID] = job
	return nil
}

func (r *jobRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.JobCard, error) {
	var out []*entity.JobCard
	for _, job := range r.s.jobs {
		if job.OrderLineID == orderLineID && job.Status == entity.DocumentOpen {
			out = append(out, job)
		}
	}
	return out, nil
}

// ── catálogo ─────────────────────────────────────────────────────────────────

type productRepo struct{ s *state }

func (r *productRepo) GetByID(id string) (*entity.Product, error) {
	return r.s.products[id], nil
}

func (r *productRepo) UpdateCost(id string, cost decimal.Decimal) error {
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}

type bomRepo struct{ s *state }

func (r *bomRepo) GetByProduct(productID string) (*entity.BOM, error) {
	return r.s.boms[productID], nil
}

type locationRepo struct{ s *state }

func (r *locationRepo) GetByCode(code string) (*entity.Location, error) {
	l, ok := r.s.locations[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

func (r *locationRepo) List() ([]*entity.Location, error) {
	out := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		out = append(out, l)
	}
	return out, nil
}
