package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics agrupa los contadores Prometheus del motor de cumplimiento.
// Se registran sobre un Registry propio para poder crear instancias
// independientes en tests sin chocar con el registro global.
type Metrics struct {
	Registry *prometheus.Registry

	MovementsApplied    *prometheus.CounterVec
	ReservationsCreated *prometheus.CounterVec
	PlansGenerated      prometheus.Counter
	PlansHeld           prometheus.Counter
	ExecutionsCommitted prometheus.Counter
	ExecutionsStale     prometheus.Counter
}

// New crea y registra las métricas del motor.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		Registry: registry,
		MovementsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_stock_movements_total",
			Help: "Movimientos de stock aplicados al libro, por tipo.",
		}, []string{"type"}),
		ReservationsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillment_reservations_created_total",
			Help: "Reservas creadas, por clase (SOFT/HARD).",
		}, []string{"kind"}),
		PlansGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_plans_generated_total",
			Help: "Planes de orquestación generados (previews incluidos).",
		}),
		PlansHeld: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_plans_held_total",
			Help: "Planes retenidos (SHIP_COMPLETE con backorder o SALES_DECISION).",
		}),
		ExecutionsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_executions_committed_total",
			Help: "Ejecuciones de plan confirmadas.",
		}),
		ExecutionsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fulfillment_executions_stale_total",
			Help: "Ejecuciones rechazadas por plan desactualizado.",
		}),
	}
	registry.MustRegister(
		m.MovementsApplied,
		m.ReservationsCreated,
		m.PlansGenerated,
		m.PlansHeld,
		m.ExecutionsCommitted,
		m.ExecutionsStale,
	)
	return m
}
