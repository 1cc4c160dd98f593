package repository

import "github.com/tu-usuario/fulfillment-pro/internal/domain/entity"

// GoodsReceiptRepository define el puerto de recepciones de mercancía (GRV).
type GoodsReceiptRepository interface {
	Create(receipt *entity.GoodsReceipt) error
	GetByID(id string) (*entity.GoodsReceipt, error)
	ListByPurchaseOrder(purchaseOrderID string) ([]*entity.GoodsReceipt, error)
}
