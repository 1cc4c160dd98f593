package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/entity"
)

// ReceiveGoodsRequest entrada para registrar un GRV contra una orden de compra.
type ReceiveGoodsRequest struct {
	Lines []ReceiveGoodsLineRequest `json:"lines"`
}

// ReceiveGoodsLineRequest cantidades recibidas/rechazadas por línea de OC.
type ReceiveGoodsLineRequest struct {
	PurchaseOrderLineID string           `json:"purchase_order_line_id"`
	QuantityReceived    decimal.Decimal  `json:"quantity_received"`
	QuantityRejected    decimal.Decimal  `json:"quantity_rejected"`
	UnitCost            *decimal.Decimal `json:"unit_cost,omitempty"`
}

// GoodsReceiptResponse GRV registrado con su reconciliación por línea.
type GoodsReceiptResponse struct {
	ID              string                     `json:"id"`
	PurchaseOrderID string                     `json:"purchase_order_id"`
	Location        string                     `json:"location"`
	Actor           string                     `json:"actor"`
	Lines           []GoodsReceiptLineResponse `json:"lines"`
	CreatedAt       time.Time                  `json:"created_at"`
}

// GoodsReceiptLineResponse reconciliación de una línea: lo esperado contra lo
// recibido/rechazado, con la marca de sobre-recibo.
type GoodsReceiptLineResponse struct {
	ID                  string          `json:"id"`
	PurchaseOrderLineID string          `json:"purchase_order_line_id"`
	ProductID           string          `json:"product_id"`
	QuantityExpected    decimal.Decimal `json:"quantity_expected"`
	QuantityReceived    decimal.Decimal `json:"quantity_received"`
	QuantityRejected    decimal.Decimal `json:"quantity_rejected"`
	OverReceipt         bool            `json:"over_receipt"`
}

// FromGoodsReceipt arma la respuesta desde la entidad.
func FromGoodsReceipt(gr *entity.GoodsReceipt) GoodsReceiptResponse {
	out := GoodsReceiptResponse{
		ID:              gr.ID,
		PurchaseOrderID: gr.PurchaseOrderID,
		Location:        gr.Location,
		Actor:           gr.Actor,
		Lines:           make([]GoodsReceiptLineResponse, 0, len(gr.Lines)),
		CreatedAt:       gr.CreatedAt,
	}
	for _, line := range gr.Lines {
		out.Lines = append(out.Lines, GoodsReceiptLineResponse{
			ID:                  line.ID,
			PurchaseOrderLineID: line.PurchaseOrderLineID,
			ProductID:           line.ProductID,
			QuantityExpected:    line.QuantityExpected,
			QuantityReceived:    line.QuantityReceived,
			QuantityRejected:    line.QuantityRejected,
			OverReceipt:         line.OverReceipt,
		})
	}
	return out
}

// PurchaseOrderResponse estado de una OC con sus líneas.
type PurchaseOrderResponse struct {
	ID         string                      `json:"id"`
	SupplierID string                      `json:"supplier_id"`
	Location   string                      `json:"location"`
	Status     string                      `json:"status"`
	Lines      []PurchaseOrderLineResponse `json:"lines"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

// PurchaseOrderLineResponse línea de OC con su saldo pendiente.
type PurchaseOrderLineResponse struct {
	ID                  string          `json:"id"`
	LineNumber          int             `json:"line_number"`
	ProductID           string          `json:"product_id"`
	QuantityOrdered     decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived    decimal.Decimal `json:"quantity_received"`
	OutstandingQuantity decimal.Decimal `json:"outstanding_quantity"`
	SourceType          string          `json:"source_type,omitempty"`
	SourceID            string          `json:"source_id,omitempty"`
}

// FromPurchaseOrder arma la respuesta desde la entidad.
func FromPurchaseOrder(po *entity.PurchaseOrder) PurchaseOrderResponse {
	out := PurchaseOrderResponse{
		ID:         po.ID,
		SupplierID: po.SupplierID,
		Location:   po.Location,
		Status:     po.Status,
		Lines:      make([]PurchaseOrderLineResponse, 0, len(po.Lines)),
		CreatedAt:  po.CreatedAt,
		UpdatedAt:  po.UpdatedAt,
	}
	for _, line := range po.Lines {
		out.Lines = append(out.Lines, PurchaseOrderLineResponse{
			ID:                  line.ID,
			LineNumber:          line.LineNumber,
			ProductID:           line.ProductID,
			QuantityOrdered:     line.QuantityOrdered,
			QuantityReceived:    line.QuantityReceived,
			OutstandingQuantity: line.OutstandingQuantity(),
			SourceType:          line.SourceType,
			SourceID:            line.SourceID,
		})
	}
	return out
}
