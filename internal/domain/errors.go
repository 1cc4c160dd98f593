package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrPlanStale: la disponibilidad cambió entre generar y ejecutar el plan.
	// El caller debe regenerar el plan y reintentar (señal tipada, reintentable).
	ErrPlanStale = errors.New("plan desactualizado")
	// ErrPlanHeld: el plan quedó retenido (SHIP_COMPLETE con backorder o SALES_DECISION)
	// y no es ejecutable tal cual.
	ErrPlanHeld = errors.New("plan retenido")
	// ErrDocumentLinkConflict: se intentó re-vincular una línea ya cumplida.
	ErrDocumentLinkConflict = errors.New("línea ya vinculada a un documento")
	// ErrInvalidTransition: transición de estado no permitida por la tabla del documento.
	ErrInvalidTransition = errors.New("transición de estado inválida")
	// ErrTransactionAborted: fallo de persistencia a mitad de commit; todo se revirtió.
	ErrTransactionAborted = errors.New("transacción abortada")
)
