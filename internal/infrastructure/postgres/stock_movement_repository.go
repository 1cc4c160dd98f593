package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del libro de stock sobre PostgreSQL.
// Solo INSERT y SELECT: el libro es append-only y la tabla no tiene UPDATE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append agrega una entrada al libro.
func (r *StockMovementRepo) Append(movement *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, location, type, quantity, reference_type, reference_id, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		movement.ID, movement.ProductID, movement.Location, movement.Type,
		movement.Quantity, movement.ReferenceType, movement.ReferenceID,
		movement.Actor, movement.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("append movement: id duplicado: %w", err)
		}
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, location, type, quantity, reference_type, reference_id, actor, created_at
		FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByKey lista los movimientos de una clave en orden estricto de inserción
// (seq es un BIGSERIAL: la suma con signo en este orden reconstruye OnHand).
func (r *StockMovementRepo) ListByKey(productID, location string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, location, type, quantity, reference_type, reference_id, actor, created_at
		FROM stock_movements WHERE product_id = $1 AND location = $2
		ORDER BY seq`
	rows, err := r.q.Query(context.Background(), query, productID, location)
	if err != nil {
		return nil, fmt.Errorf("list movements by key: %w", err)
	}
	return collectMovements(rows)
}

// ListByReference lista los movimientos originados por un documento.
func (r *StockMovementRepo) ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, location, type, quantity, reference_type, reference_id, actor, created_at
		FROM stock_movements WHERE reference_type = $1 AND reference_id = $2
		ORDER BY seq`
	rows, err := r.q.Query(context.Background(), query, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return collectMovements(rows)
}

// ListByLocation lista movimientos de una ubicación en un rango de fechas.
func (r *StockMovementRepo) ListByLocation(location string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, product_id, location, type, quantity, reference_type, reference_id, actor, created_at
		FROM stock_movements WHERE location = $1`
	args := []any{location}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by location: %w", err)
	}
	return collectMovements(rows)
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(&m.ID, &m.ProductID, &m.Location, &m.Type, &m.Quantity,
		&m.ReferenceType, &m.ReferenceID, &m.Actor, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
