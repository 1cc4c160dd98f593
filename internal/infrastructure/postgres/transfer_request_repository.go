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

var _ repository.TransferRequestRepository = (*TransferRequestRepo)(nil)

// TransferRequestRepo implementación de TransferRequestRepository sobre PostgreSQL.
type TransferRequestRepo struct {
	q Querier
}

// NewTransferRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRequestRepository(q Querier) *TransferRequestRepo {
	return &TransferRequestRepo{q: q}
}

// Create persiste una solicitud de traslado.
func (r *TransferRequestRepo) Create(transfer *entity.TransferRequest) error {
	query := `
		INSERT INTO transfer_requests (id, order_line_id, product_id, from_location, to_location, quantity, reservation_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		transfer.ID, transfer.OrderLineID, transfer.ProductID, transfer.FromLocation,
		transfer.ToLocation, transfer.Quantity, transfer.ReservationID, transfer.Status,
		transfer.CreatedAt, transfer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create transfer request: %w", err)
	}
	return nil
}

// GetByID obtiene una solicitud por ID.
func (r *TransferRequestRepo) GetByID(id string) (*entity.TransferRequest, error) {
	return r.get(id, "")
}

// GetByIDForUpdate obtiene la solicitud bloqueando su fila (recepciones concurrentes).
func (r *TransferRequestRepo) GetByIDForUpdate(id string) (*entity.TransferRequest, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *TransferRequestRepo) get(id, lock string) (*entity.TransferRequest, error) {
	query := `
		SELECT id, order_line_id, product_id, from_location, to_location, quantity, reservation_id, status, created_at, updated_at
		FROM transfer_requests WHERE id = $1` + lock
	var tr entity.TransferRequest
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&tr.ID, &tr.OrderLineID, &tr.ProductID, &tr.FromLocation, &tr.ToLocation,
		&tr.Quantity, &tr.ReservationID, &tr.Status, &tr.CreatedAt, &tr.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer request: %w", err)
	}
	return &tr, nil
}

// Update persiste el estado de la solicitud.
func (r *TransferRequestRepo) Update(transfer *entity.TransferRequest) error {
	query := `
		UPDATE transfer_requests
		SET status = $2, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, transfer.ID, transfer.Status, transfer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transfer request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpenByOrderLine lista traslados abiertos que cubren una línea de orden.
func (r *TransferRequestRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.TransferRequest, error) {
	query := `
		SELECT id, order_line_id, product_id, from_location, to_location, quantity, reservation_id, status, created_at, updated_at
		FROM transfer_requests WHERE order_line_id = $1 AND status = $2
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, orderLineID, entity.DocumentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferRequest
	for rows.Next() {
		var tr entity.TransferRequest
		if err := rows.Scan(&tr.ID, &tr.OrderLineID, &tr.ProductID, &tr.FromLocation, &tr.ToLocation,
			&tr.Quantity, &tr.ReservationID, &tr.Status, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer request: %w", err)
		}
		list = append(list, &tr)
	}
	return list, rows.Err()
}
