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

var _ repository.GoodsReceiptRepository = (*GoodsReceiptRepo)(nil)

// GoodsReceiptRepo implementación de GoodsReceiptRepository sobre PostgreSQL.
// Los GRV son inmutables una vez registrados: solo INSERT y SELECT.
type GoodsReceiptRepo struct {
	q Querier
}

// NewGoodsReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGoodsReceiptRepository(q Querier) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{q: q}
}

// Create persiste el GRV con sus líneas.
func (r *GoodsReceiptRepo) Create(receipt *entity.GoodsReceipt) error {
	query := `
		INSERT INTO goods_receipts (id, purchase_order_id, location, actor, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(context.Background(), query,
		receipt.ID, receipt.PurchaseOrderID, receipt.Location, receipt.Actor, receipt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create goods receipt: %w", err)
	}
	for _, line := range receipt.Lines {
		lineQuery := `
			INSERT INTO goods_receipt_lines (id, goods_receipt_id, purchase_order_line_id, product_id, quantity_expected, quantity_received, quantity_rejected, over_receipt)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.q.Exec(context.Background(), lineQuery,
			line.ID, line.GoodsReceiptID, line.PurchaseOrderLineID, line.ProductID,
			line.QuantityExpected, line.QuantityReceived, line.QuantityRejected, line.OverReceipt,
		)
		if err != nil {
			return fmt.Errorf("insert grv line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un GRV con sus líneas.
func (r *GoodsReceiptRepo) GetByID(id string) (*entity.GoodsReceipt, error) {
	query := `
		SELECT id, purchase_order_id, location, actor, created_at
		FROM goods_receipts WHERE id = $1`
	var gr entity.GoodsReceipt
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&gr.ID, &gr.PurchaseOrderID, &gr.Location, &gr.Actor, &gr.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goods receipt: %w", err)
	}
	lines, err := r.listLines(gr.ID)
	if err != nil {
		return nil, err
	}
	gr.Lines = lines
	return &gr, nil
}

// ListByPurchaseOrder lista los GRV registrados contra una OC.
func (r *GoodsReceiptRepo) ListByPurchaseOrder(purchaseOrderID string) ([]*entity.GoodsReceipt, error) {
	query := `
		SELECT id, purchase_order_id, location, actor, created_at
		FROM goods_receipts WHERE purchase_order_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, purchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("list goods receipts: %w", err)
	}
	defer rows.Close()
	var list []*entity.GoodsReceipt
	for rows.Next() {
		var gr entity.GoodsReceipt
		if err := rows.Scan(&gr.ID, &gr.PurchaseOrderID, &gr.Location, &gr.Actor, &gr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan goods receipt: %w", err)
		}
		list = append(list, &gr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, gr := range list {
		lines, err := r.listLines(gr.ID)
		if err != nil {
			return nil, err
		}
		gr.Lines = lines
	}
	return list, nil
}

func (r *GoodsReceiptRepo) listLines(receiptID string) ([]*entity.GoodsReceiptLine, error) {
	query := `
		SELECT id, goods_receipt_id, purchase_order_line_id, product_id, quantity_expected, quantity_received, quantity_rejected, over_receipt
		FROM goods_receipt_lines WHERE goods_receipt_id = $1`
	rows, err := r.q.Query(context.Background(), query, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list grv lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.GoodsReceiptLine
	for rows.Next() {
		var line entity.GoodsReceiptLine
		if err := rows.Scan(&line.ID, &line.GoodsReceiptID, &line.PurchaseOrderLineID, &line.ProductID,
			&line.QuantityExpected, &line.QuantityReceived, &line.QuantityRejected, &line.OverReceipt); err != nil {
			return nil, fmt.Errorf("scan grv line: %w", err)
		}
		list = append(list, &line)
	}
	return list, rows.Err()
}
