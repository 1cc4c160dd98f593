package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo implementación de SalesOrderRepository sobre PostgreSQL.
// Las referencias débiles de cada línea (Links) se guardan como JSONB.
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create persiste la orden con sus líneas.
func (r *SalesOrderRepo) Create(order *entity.SalesOrder) error {
	query := `
		INSERT INTO sales_orders (id, company_id, customer_id, location, policy_override, payment_terms, payment_status, total, amount_paid, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		order.ID, order.CompanyID, order.CustomerID, order.Location, order.PolicyOverride,
		order.PaymentTerms, order.PaymentStatus, order.Total, order.AmountPaid,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create sales order: %w", err)
	}
	for _, line := range order.Lines {
		if err := r.insertLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *SalesOrderRepo) insertLine(line *entity.SalesOrderLine) error {
	links, err := json.Marshal(line.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	query := `
		INSERT INTO sales_order_lines (id, order_id, line_number, product_id, quantity_ordered, quantity_backorder, status, links, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.q.Exec(context.Background(), query,
		line.ID, line.OrderID, line.LineNumber, line.ProductID,
		line.QuantityOrdered, line.QuantityBackorder, line.Status, links, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

// GetByID obtiene la orden con sus líneas.
func (r *SalesOrderRepo) GetByID(id string) (*entity.SalesOrder, error) {
	return r.get(id, "")
}

// GetByIDForUpdate obtiene la orden bloqueando su fila y las de sus líneas
// (ejecución de planes, pagos: un solo ejecutor por orden a la vez).
func (r *SalesOrderRepo) GetByIDForUpdate(id string) (*entity.SalesOrder, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *SalesOrderRepo) get(id, lock string) (*entity.SalesOrder, error) {
	query := `
		SELECT id, company_id, customer_id, location, policy_override, payment_terms, payment_status, total, amount_paid, created_at, updated_at
		FROM sales_orders WHERE id = $1` + lock
	var o entity.SalesOrder
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.CompanyID, &o.CustomerID, &o.Location, &o.PolicyOverride,
		&o.PaymentTerms, &o.PaymentStatus, &o.Total, &o.AmountPaid,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	lines, err := r.listLines(lock, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *SalesOrderRepo) listLines(lock string, orderID string) ([]*entity.SalesOrderLine, error) {
	query := `
		SELECT id, order_id, line_number, product_id, quantity_ordered, quantity_backorder, status, links, updated_at
		FROM sales_order_lines WHERE order_id = $1 ORDER BY line_number` + lock
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.SalesOrderLine
	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, line)
	}
	return list, rows.Err()
}

func scanOrderLine(row pgx.Row) (*entity.SalesOrderLine, error) {
	var line entity.SalesOrderLine
	var links []byte
	err := row.Scan(&line.ID, &line.OrderID, &line.LineNumber, &line.ProductID,
		&line.QuantityOrdered, &line.QuantityBackorder, &line.Status, &links, &line.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &line.Links); err != nil {
			return nil, fmt.Errorf("unmarshal links: %w", err)
		}
	}
	return &line, nil
}

// Update persiste los campos mutables de la cabecera.
func (r *SalesOrderRepo) Update(order *entity.SalesOrder) error {
	query := `
		UPDATE sales_orders
		SET policy_override = $2, payment_terms = $3, payment_status = $4, total = $5, amount_paid = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		order.ID, order.PolicyOverride, order.PaymentTerms, order.PaymentStatus,
		order.Total, order.AmountPaid, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateLine persiste el estado, backorder y referencias de una línea.
func (r *SalesOrderRepo) UpdateLine(line *entity.SalesOrderLine) error {
	links, err := json.Marshal(line.Links)
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	query := `
		UPDATE sales_order_lines
		SET quantity_backorder = $2, status = $3, links = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		line.ID, line.QuantityBackorder, line.Status, links, line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetLineByID obtiene una línea suelta por ID.
func (r *SalesOrderRepo) GetLineByID(lineID string) (*entity.SalesOrderLine, error) {
	query := `
		SELECT id, order_id, line_number, product_id, quantity_ordered, quantity_backorder, status, links, updated_at
		FROM sales_order_lines WHERE id = $1`
	line, err := scanOrderLine(r.q.QueryRow(context.Background(), query, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order line: %w", err)
	}
	return line, nil
}
