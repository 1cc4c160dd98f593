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

var _ repository.JobCardRepository = (*JobCardRepo)(nil)

// JobCardRepo implementación de JobCardRepository sobre PostgreSQL.
// Los componentes (snapshot del BOM al crear el job) son inmutables.
type JobCardRepo struct {
	q Querier
}

// NewJobCardRepository construye el adaptador. Pasar pool o tx (Querier).
func NewJobCardRepository(q Querier) *JobCardRepo {
	return &JobCardRepo{q: q}
}

// Create persiste el job con el snapshot de componentes.
func (r *JobCardRepo) Create(job *entity.JobCard) error {
	query := `
		INSERT INTO job_cards (id, order_line_id, product_id, location, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		job.ID, job.OrderLineID, job.ProductID, job.Location, job.Quantity,
		job.Status, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create job card: %w", err)
	}
	for _, comp := range job.Components {
		compQuery := `
			INSERT INTO job_components (job_card_id, component_id, quantity, reservation_id)
			VALUES ($1, $2, $3, $4)`
		_, err := r.q.Exec(context.Background(), compQuery,
			job.ID, comp.ComponentID, comp.Quantity, comp.ReservationID,
		)
		if err != nil {
			return fmt.Errorf("insert job component: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el job con sus componentes.
func (r *JobCardRepo) GetByID(id string) (*entity.JobCard, error) {
	return r.get(id, "")
}

// GetByIDForUpdate obtiene el job bloqueando su fila (completados concurrentes).
func (r *JobCardRepo) GetByIDForUpdate(id string) (*entity.JobCard, error) {
	return r.get(id, " FOR UPDATE")
}

func (r *JobCardRepo) get(id, lock string) (*entity.JobCard, error) {
	query := `
		SELECT id, order_line_id, product_id, location, quantity, status, created_at, updated_at
		FROM job_cards WHERE id = $1` + lock
	var job entity.JobCard
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&job.ID, &job.OrderLineID, &job.ProductID, &job.Location, &job.Quantity,
		&job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job card: %w", err)
	}
	compQuery := `
		SELECT component_id, quantity, reservation_id
		FROM job_components WHERE job_card_id = $1`
	rows, err := r.q.Query(context.Background(), compQuery, id)
	if err != nil {
		return nil, fmt.Errorf("list job components: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var comp entity.JobComponent
		if err := rows.Scan(&comp.ComponentID, &comp.Quantity, &comp.ReservationID); err != nil {
			return nil, fmt.Errorf("scan job component: %w", err)
		}
		job.Components = append(job.Components, &comp)
	}
	return &job, rows.Err()
}

// Update persiste el estado del job.
func (r *JobCardRepo) Update(job *entity.JobCard) error {
	query := `
		UPDATE job_cards
		SET status = $2, updated_at = $3
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, job.ID, job.Status, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListOpenByOrderLine lista jobs abiertos que cubren una línea de orden.
func (r *JobCardRepo) ListOpenByOrderLine(orderLineID string) ([]*entity.JobCard, error) {
	query := `
		SELECT id, order_line_id, product_id, location, quantity, status, created_at, updated_at
		FROM job_cards WHERE order_line_id = $1 AND status = $2
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, orderLineID, entity.DocumentOpen)
	if err != nil {
		return nil, fmt.Errorf("list open job cards: %w", err)
	}
	defer rows.Close()
	var list []*entity.JobCard
	for rows.Next() {
		var job entity.JobCard
		if err := rows.Scan(&job.ID, &job.OrderLineID, &job.ProductID, &job.Location,
			&job.Quantity, &job.Status, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job card: %w", err)
		}
		list = append(list, &job)
	}
	return list, rows.Err()
}
