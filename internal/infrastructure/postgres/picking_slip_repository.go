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

var _ repository.PickingSlipRepository = (*PickingSlipRepo)(nil)

// PickingSlipRepo implementación de PickingSlipRepository sobre PostgreSQL.
type PickingSlipRepo struct {
	q Querier
}

// NewPickingSlipRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPickingSlipRepository(q Querier) *PickingSlipRepo {
	return &PickingSlipRepo{q: q}
}

// Create persiste la lista de alistamiento con sus líneas.
func (r *PickingSlipRepo) Create(slip *entity.PickingSlip) error {
	query := `
		INSERT INTO picking_slips (id, order_id, location, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		slip.ID, slip.OrderID, slip.Location, slip.Status, slip.CreatedAt, slip.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create picking slip: %w", err)
	}
	for _, line := range slip.Lines {
		lineQuery := `
			INSERT INTO picking_slip_lines (id, picking_slip_id, order_line_id, product_id, quantity, reservation_id)
			VALUES ($1, $2, $3, $4, $5, $6)`
		_, err := r.q.Exec(context.Background(), lineQuery,
			line.ID, line.PickingSlipID, line.OrderLineID, line.ProductID, line.Quantity, line.ReservationID,
		)
		if err != nil {
			return fmt.Errorf("insert slip line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la lista con sus líneas.
func (r *PickingSlipRepo) GetByID(id string) (*entity.PickingSlip, error) {
	return r.get(id, "")
}

// GetByIDForUpdate obtiene la lista bloqueando su fila (confirmaciones concurrentes).
func (r *PickingSlipRepo) GetByIDForUpdate(id string) (*entity.PickingSlip, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *PickingSlipRepo) get(id, lock string) (*entity.PickingSlip, error) {
	query := `
		SELECT id, order_id, location, status, created_at, updated_at
		FROM picking_slips WHERE id = $1` + lock
	var slip entity.PickingSlip
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&slip.ID, &slip.OrderID, &slip.Location, &slip.Status, &slip.CreatedAt, &slip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get picking slip: %w", err)
	}
	linesQuery := `
		SELECT id, picking_slip_id, order_line_id, product_id, quantity, reservation_id
		FROM picking_slip_lines WHERE picking_slip_id = $1`
	rows, err := r.q.Query(context.Background(), linesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list slip lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line entity.PickingSlipLine
		if err := rows.Scan(&line.ID, &line.PickingSlipID, &line.OrderLineID,
			&line.ProductID, &line.Quantity, &line.ReservationID); err != nil {
			return nil, fmt.Errorf("scan slip line: %w", err)
		}
		slip.Lines = append(slip.Lines, &line)
	}
	return &slip, rows.Err()
}

// Update persiste el estado de la cabecera.
func (r *PickingSlipRepo) Update(slip *entity.PickingSlip) error {
	query := `
		UPDATE picking_slips
		SET status = $2, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, slip.ID, slip.Status, slip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update picking slip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpenByOrderLine lista líneas de alistamiento de listas abiertas que cubren
// una línea de orden (el planificador las cuenta como cobertura en vuelo).
func (r *PickingSlipRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.PickingSlipLine, error) {
	query := `
		SELECT l.id, l.picking_slip_id, l.order_line_id, l.product_id, l.quantity, l.reservation_id
		FROM picking_slip_lines l
		JOIN picking_slips ps ON ps.id = l.picking_slip_id
		WHERE l.order_line_id = $1 AND ps.status = $2`
	rows, err := r.q.Query(context.Background(), query, orderLineID, entity.DocumentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open slip lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.PickingSlipLine
	for rows.Next() {
		var line entity.PickingSlipLine
		if err := rows.Scan(&line.ID, &line.PickingSlipID, &line.OrderLineID,
			&line.ProductID, &line.Quantity, &line.ReservationID); err != nil {
			return nil, fmt.Errorf("scan slip line: %w", err)
		}
		list = append(list, &line)
	}
	return list, rows.Err()
}
