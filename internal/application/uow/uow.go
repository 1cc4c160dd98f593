package uow

import (
	"context"

	"github.com/tu-usuario/fulfillment-pro/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
// El motor de cumplimiento toca varios almacenes de documentos en una sola
// unidad de trabajo, así que se pasan en bloque en vez de uno a uno.
type Repos struct {
	Levels    repository.StockLevelRepository
	Movements repository.StockMovementRepository
	Reserves  repository.ReservationRepository
	Orders    repository.SalesOrderRepository
	POs       repository.PurchaseOrderRepository
	Receipts  repository.GoodsReceiptRepository
	Slips     repository.PickingSlipRepository
	Transfers repository.TransferRequestRepository
	Jobs      repository.JobCardRepository
	Products  repository.ProductRepository
	BOMs      repository.BOMRepository
	Locations repository.LocationRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando los
// repositorios atados a esa tx. Garantiza atomicidad: Commit si fn retorna nil,
// Rollback completo en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(r *Repos) error) error
}
