package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
)

// GeneratePlanRequest entrada para el preview de un plan.
// PolicyOverride, si viene, manda sobre la política resuelta (destrabar SALES_DECISION).
type GeneratePlanRequest struct {
	PolicyOverride string `json:"policy_override,omitempty"`
}

// PlanDTO es el plan completo tal como viaja entre preview y ejecución.
// El cliente lo recibe del preview y lo envía de vuelta para ejecutar;
// el ejecutor re-valida contra el estado actual (el plan nunca se persiste).
type PlanDTO struct {
	OrderID            string        `json:"order_id"`
	Policy             string        `json:"policy"`
	Held               bool          `json:"held"`
	NeedsSalesDecision bool          `json:"needs_sales_decision"`
	GeneratedAt        time.Time     `json:"generated_at"`
	Lines              []PlanLineDTO `json:"lines"`
}

// PlanLineDTO decisión para (una porción de) una línea de orden.
type PlanLineDTO struct {
	OrderLineID       string          `json:"order_line_id"`
	Action            string          `json:"action"`
	SourceLocation    string          `json:"source_location"`
	Quantity          decimal.Decimal `json:"quantity"`
	BackorderQuantity decimal.Decimal `json:"backorder_quantity"`
	Held              bool            `json:"held"`
	AvailableSnapshot decimal.Decimal `json:"available_snapshot"`
}

// FromPlan arma el DTO desde el plan del dominio.
func FromPlan(p *orchestration.Plan) PlanDTO {
	out := PlanDTO{
		OrderID:            p.OrderID,
		Policy:             string(p.Policy),
		Held:               p.Held,
		NeedsSalesDecision: p.NeedsSalesDecision,
		GeneratedAt:        p.GeneratedAt,
		Lines:              make([]PlanLineDTO, 0, len(p.Lines)),
	}
	for _, pl := range p.Lines {
		out.Lines = append(out.Lines, PlanLineDTO{
			OrderLineID:       pl.OrderLineID,
			Action:            pl.Action,
			SourceLocation:    pl.SourceLocation,
			Quantity:          pl.Quantity,
			BackorderQuantity: pl.BackorderQuantity,
			Held:              pl.Held,
			AvailableSnapshot: pl.AvailableSnapshot,
		})
	}
	return out
}

// ToPlan reconstruye el plan del dominio desde el DTO recibido para ejecutar.
func (d PlanDTO) ToPlan() *orchestration.Plan {
	p := &orchestration.Plan{
		OrderID:            d.OrderID,
		Policy:             fulfillment.Policy(d.Policy),
		Held:               d.Held,
		NeedsSalesDecision: d.NeedsSalesDecision,
		GeneratedAt:        d.GeneratedAt,
		Lines:              make([]*orchestration.PlanLine, 0, len(d.Lines)),
	}
	for _, pl := range d.Lines {
		p.Lines = append(p.Lines, &orchestration.PlanLine{
			OrderLineID:       pl.OrderLineID,
			Action:            pl.Action,
			SourceLocation:    pl.SourceLocation,
			Quantity:          pl.Quantity,
			BackorderQuantity: pl.BackorderQuantity,
			Held:              pl.Held,
			AvailableSnapshot: pl.AvailableSnapshot,
		})
	}
	return p
}

// ExecutionResultResponse resumen de lo creado al ejecutar un plan.
type ExecutionResultResponse struct {
	OrderID          string           `json:"order_id"`
	CreatedDocuments []DocumentRefDTO `json:"created_documents"`
	Lines            []LineOutcomeDTO `json:"lines"`
}

// LineOutcomeDTO resultado por línea de plan ejecutada.
type LineOutcomeDTO struct {
	OrderLineID       string          `json:"order_line_id"`
	Action            string          `json:"action"`
	DocumentType      string          `json:"document_type"`
	DocumentID        string          `json:"document_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	BackorderQuantity decimal.Decimal `json:"backorder_quantity"`
}

// FromExecutionResult arma la respuesta desde el resultado del ejecutor.
func FromExecutionResult(res *orchestration.ExecutionResult) ExecutionResultResponse {
	out := ExecutionResultResponse{
		OrderID:          res.OrderID,
		CreatedDocuments: make([]DocumentRefDTO, 0, len(res.CreatedDocuments)),
		Lines:            make([]LineOutcomeDTO, 0, len(res.Lines)),
	}
	for _, ref := range res.CreatedDocuments {
		out.CreatedDocuments = append(out.CreatedDocuments, DocumentRefDTO{Type: ref.Type, ID: ref.ID})
	}
	for _, lo := range res.Lines {
		out.Lines = append(out.Lines, LineOutcomeDTO{
			OrderLineID:       lo.OrderLineID,
			Action:            lo.Action,
			DocumentType:      lo.DocumentType,
			DocumentID:        lo.DocumentID,
			Quantity:          lo.Quantity,
			BackorderQuantity: lo.BackorderQuantity,
		})
	}
	return out
}

// RecordPaymentRequest entrada para registrar un pago contra la orden.
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RecordPaymentResponse resultado del pago. Execution viene solo cuando el pago
// completó el total de una orden PREPAID/COD y disparó el cumplimiento automático.
type RecordPaymentResponse struct {
	OrderID   string                   `json:"order_id"`
	Execution *ExecutionResultResponse `json:"execution,omitempty"`
}
