package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/fulfillment-pro/internal/application/uow"
	"github.com/tu-usuario/fulfillment-pro/internal/domain"
)

// Ensure TxRunner implements uow.TxRunner.
var _ uow.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta unidades de trabajo dentro de una transacción PostgreSQL.
// Los errores de infraestructura (begin/commit) se envuelven en
// ErrTransactionAborted; los errores de dominio de fn pasan intactos.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos atados a la tx y hace
// Commit o Rollback. Rollback total: ninguna unidad de trabajo queda a medias.
func (r *TxRunner) Run(ctx context.Context, fn func(repos *uow.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrTransactionAborted, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := &uow.Repos{
		Levels:    NewStockLevelRepository(tx),
		Movements: NewStockMovementRepository(tx),
		Reserves:  NewReservationRepository(tx),
		Orders:    NewSalesOrderRepository(tx),
		POs:       NewPurchaseOrderRepository(tx),
		Receipts:  NewGoodsReceiptRepository(tx),
		Slips:     NewPickingSlipRepository(tx),
		Transfers: NewTransferRequestRepository(tx),
		Jobs:      NewJobCardRepository(tx),
		Products:  NewProductRepository(tx),
		BOMs:      NewBOMRepository(tx),
		Locations: NewLocationRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrTransactionAborted, err)
	}
	return nil
}
