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

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

// Create persiste una reserva nueva.
func (r *ReservationRepo) Create(reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (id, kind, product_id, location, quantity, source_type, source_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.Kind, reservation.ProductID, reservation.Location,
		reservation.Quantity, reservation.SourceType, reservation.SourceID,
		reservation.Status, reservation.CreatedAt, reservation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID.
func (r *ReservationRepo) GetByID(id string) (*entity.Reservation, error) {
	return r.get(id, "")
}

// GetForUpdate obtiene la reserva y bloquea la fila (release/promote/consume concurrentes).
func (r *ReservationRepo) GetForUpdate(id string) (*entity.Reservation, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *ReservationRepo) get(id, lock string) (*entity.Reservation, error) {
	query := `
		SELECT id, kind, product_id, location, quantity, source_type, source_id, status, created_at, updated_at
		FROM reservations WHERE id = $1` + lock
	var res entity.Reservation
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&res.ID, &res.Kind, &res.ProductID, &res.Location, &res.Quantity,
		&res.SourceType, &res.SourceID, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return &res, nil
}

// Update persiste los cambios de estado de la reserva.
func (r *ReservationRepo) Update(reservation *entity.Reservation) error {
	query := `
		UPDATE reservations
		SET kind = $2, quantity = $3, status = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		reservation.ID, reservation.Kind, reservation.Quantity,
		reservation.Status, reservation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActiveByKey lista las reservas vigentes de una clave (producto, ubicación).
func (r *ReservationRepo) ListActiveByKey(productID, location string) ([]*entity.Reservation, error) {
	query := `
		SELECT id, kind, product_id, location, quantity, source_type, source_id, status, created_at, updated_at
		FROM reservations
		WHERE product_id = $1 AND location = $2 AND status = $3
		ORDER BY created_at`
	return r.list(query, productID, location, entity.ReservationActive)
}

// ListBySource lista las reservas vinculadas a un documento origen.
func (r *ReservationRepo) ListBySource(sourceType, sourceID string) ([]*entity.Reservation, error) {
	query := `
		SELECT id, kind, product_id, location, quantity, source_type, source_id, status, created_at, updated_at
		FROM reservations
		WHERE source_type = $1 AND source_id = $2
		ORDER BY created_at`
	return r.list(query, sourceType, sourceID)
}

func (r *ReservationRepo) list(query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.Kind, &res.ProductID, &res.Location, &res.Quantity,
			&res.SourceType, &res.SourceID, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
