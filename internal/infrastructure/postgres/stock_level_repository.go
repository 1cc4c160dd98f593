package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el nivel de una clave. Si no hay fila devuelve un nivel en cero:
// una clave sin historia es una clave con todo en cero, no un error.
func (r *StockLevelRepo) Get(productID, location string) (*entity.StockLevel, error) {
	query := `
		SELECT product_id, location, on_hand, reserved, on_order, updated_at
		FROM stock_levels WHERE product_id = $1 AND location = $2`
	var l entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, productID, location).Scan(
		&l.ProductID, &l.Location, &l.OnHand, &l.Reserved, &l.OnOrder, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockLevel(productID, location), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &l, nil
}

// GetForUpdate obtiene el nivel y bloquea la fila (SELECT FOR UPDATE): serializa
// todas las escrituras contra la misma clave. Una clave sin fila no tiene nada
// que bloquear, así que primero se materializa en cero; dos primeros movimientos
// concurrentes sobre la misma clave serializan sobre esa fila y ninguno pierde
// su delta.
func (r *StockLevelRepo) GetForUpdate(productID, location string) (*entity.StockLevel, error) {
	insert := `
		INSERT INTO stock_levels (product_id, location, on_hand, reserved, on_order, updated_at)
		VALUES ($1, $2, 0, 0, 0, now())
		ON CONFLICT (product_id, location) DO NOTHING`
	if _, err := r.q.Exec(context.Background(), insert, productID, location); err != nil {
		return nil, fmt.Errorf("init stock level: %w", err)
	}
	query := `
		SELECT product_id, location, on_hand, reserved, on_order, updated_at
		FROM stock_levels WHERE product_id = $1 AND location = $2
		FOR UPDATE`
	var l entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, productID, location).Scan(
		&l.ProductID, &l.Location, &l.OnHand, &l.Reserved, &l.OnOrder, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.NewStockLevel(productID, location), nil
		}
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return &l, nil
}

// Upsert inserta o actualiza el nivel de la clave.
func (r *StockLevelRepo) Upsert(level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, location, on_hand, reserved, on_order, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (product_id, location)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, reserved = EXCLUDED.reserved,
		              on_order = EXCLUDED.on_order, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		level.ProductID, level.Location, level.OnHand, level.Reserved, level.OnOrder)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByProduct lista los niveles del producto en todas las ubicaciones.
func (r *StockLevelRepo) ListByProduct(productID string) ([]*entity.StockLevel, error) {
	query := `
		SELECT product_id, location, on_hand, reserved, on_order, updated_at
		FROM stock_levels WHERE product_id = $1
		ORDER BY location`
	rows, err := r.q.Query(context.Background(), query, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.ProductID, &l.Location, &l.OnHand, &l.Reserved, &l.OnOrder, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
