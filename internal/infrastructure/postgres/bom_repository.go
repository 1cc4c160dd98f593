package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

var _ repository.BOMRepository = (*BOMRepo)(nil)

// BOMRepo implementación de BOMRepository sobre PostgreSQL.
type BOMRepo struct {
	q Querier
}

// NewBOMRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBOMRepository(q Querier) *BOMRepo {
	return &BOMRepo{q: q}
}

// GetByProduct devuelve el BOM vigente del ensamble, o nil si no tiene.
func (r *BOMRepo) GetByProduct(productID string) (*entity.BOM, error) {
	query := `
		SELECT product_id, updated_at FROM boms WHERE product_id = $1`
	var bom entity.BOM
	err := r.q.QueryRow(context.Background(), query, productID).Scan(&bom.ProductID, &bom.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bom: %w", err)
	}
	linesQuery := `
		SELECT component_id, quantity_per FROM bom_lines WHERE product_id = $1`
	rows, err := r.q.Query(context.Background(), linesQuery, productID)
	if err != nil {
		return nil, fmt.Errorf("list bom lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line entity.BOMLine
		if err := rows.Scan(&line.ComponentID, &line.QuantityPer); err != nil {
			return nil, fmt.Errorf("scan bom line: %w", err)
		}
		bom.Lines = append(bom.Lines, &line)
	}
	return &bom, rows.Err()
}
