package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create persiste la OC con sus líneas.
func (r *PurchaseOrderRepo) Create(po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, company_id, supplier_id, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(context.Background(), query,
		po.ID, po.CompanyID, po.SupplierID, po.Location, po.Status, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create purchase order: %w", err)
	}
	for _, line := range po.Lines {
		lineQuery := `
			INSERT INTO purchase_order_lines (id, purchase_order_id, line_number, product_id, quantity_ordered, quantity_received, source_type, source_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.q.Exec(context.Background(), lineQuery,
			line.ID, line.PurchaseOrderID, line.LineNumber, line.ProductID,
			line.QuantityOrdered, line.QuantityReceived, line.SourceType, line.SourceID,
		)
		if err != nil {
			return fmt.Errorf("insert po line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la OC con sus líneas.
func (r *PurchaseOrderRepo) GetByID(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, "")
}

// GetByIDForUpdate obtiene la OC bloqueando su fila (transiciones y recepciones concurrentes).
func (r *PurchaseOrderRepo) GetByIDForUpdate(id string) (*entity.PurchaseOrder, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *PurchaseOrderRepo) get(id, lock string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, company_id, supplier_id, location, status, created_at, updated_at
		FROM purchase_orders WHERE id = $1` + lock
	var po entity.PurchaseOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&po.ID, &po.CompanyID, &po.SupplierID, &po.Location, &po.Status, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	linesQuery := `
		SELECT id, purchase_order_id, line_number, product_id, quantity_ordered, quantity_received, source_type, source_id
		FROM purchase_order_lines WHERE purchase_order_id = $1 ORDER BY line_number` + lock
	rows, err := r.q.Query(context.Background(), linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list po lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line entity.PurchaseOrderLine
		if err := rows.Scan(&line.ID, &line.PurchaseOrderID, &line.LineNumber, &line.ProductID,
			&line.QuantityOrdered, &line.QuantityReceived, &line.SourceType, &line.SourceID); err != nil {
			return nil, fmt.Errorf("scan po line: %w", err)
		}
		po.Lines = append(po.Lines, &line)
	}
	return &po, rows.Err()
}

// Update persiste el estado de la cabecera.
func (r *PurchaseOrderRepo) Update(po *entity.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders
		SET status = $2, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, po.ID, po.Status, po.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update purchase order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateLine persiste el acumulado recibido de una línea.
func (r *PurchaseOrderRepo) UpdateLine(line *entity.PurchaseOrderLine) error {
	query := `
		UPDATE purchase_order_lines
		SET quantity_received = $2
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, line.ID, line.QuantityReceived)
	if err != nil {
		return fmt.Errorf("update po line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpenBySourceLine lista líneas de OC con saldo pendiente vinculadas a una
// línea de orden de venta, excluyendo OCs canceladas o cerradas.
func (r *PurchaseOrderRepo) ListOpenBySourceLine(orderLineID string) ([]*entity.PurchaseOrderLine, error) {
	query := `
		SELECT l.id, l.purchase_order_id, l.line_number, l.product_id, l.quantity_ordered, l.quantity_received, l.source_type, l.source_id
		FROM purchase_order_lines l
		JOIN purchase_orders po ON po.id = l.purchase_order_id
		WHERE l.source_type = $1 AND l.source_id = $2
		  AND po.status NOT IN ($3, $4)
		  AND l.quantity_received < l.quantity_ordered
		ORDER BY l.line_number`
	rows, err := r.q.Query(context.Background(), query,
		entity.RefOrderLine, orderLineID, entity.POStatusCancelled, entity.POStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("list open po lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrderLine
	for rows.Next() {
		var line entity.PurchaseOrderLine
		if err := rows.Scan(&line.ID, &line.PurchaseOrderID, &line.LineNumber, &line.ProductID,
			&line.QuantityOrdered, &line.QuantityReceived, &line.SourceType, &line.SourceID); err != nil {
			return nil, fmt.Errorf("scan po line: %w", err)
		}
		list = append(list, &line)
	}
	return list, rows.Err()
}
