package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/propagation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/purchasing"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ApplyMovement *ledger.ApplyMovementUseCase
	LedgerQuery   *ledger.QueryUseCase
	Reservations  *reservation.UseCase
	Generator     *orchestration.PlanGenerator
	Executor      *orchestration.Executor
	Propagation   *propagation.UseCase
	Purchasing    *purchasing.UseCase
	Metrics       *metrics.Metrics
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	// Métricas Prometheus sobre el registry propio del motor (público).
	app.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Libro de stock y niveles (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.ApplyMovement, deps.LedgerQuery)
	invGroup.Post("/movements", inventoryHandler.ApplyMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/stock/:productId", inventoryHandler.ListStockByProduct)
	invGroup.Get("/stock/:productId/:location", inventoryHandler.GetStockLevel)
	invGroup.Get("/stock/:productId/:location/replay", inventoryHandler.ReplayLevel)

	// Reservas (protegido)
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.Reservations)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Get("/:id", reservationHandler.Get)
	reservations.Post("/:id/release", reservationHandler.Release)
	reservations.Post("/:id/promote", reservationHandler.Promote)
	reservations.Post("/:id/consume", reservationHandler.Consume)

	// Orquestación y propagación (protegido)
	orchestrationHandler := NewOrchestrationHandler(deps.Generator, deps.Executor, deps.Propagation)
	orders := protected.Group("/orders")
	orders.Post("/:id/plan", orchestrationHandler.GeneratePlan)
	orders.Post("/:id/execute", orchestrationHandler.ExecutePlan)
	orders.Post("/:id/payments", orchestrationHandler.RecordPayment)
	orders.Post("/:id/ship", orchestrationHandler.ShipOrder)
	orders.Post("/:id/deliver", orchestrationHandler.DeliverOrder)
	protected.Post("/picking-slips/:id/confirm", orchestrationHandler.ConfirmPick)
	protected.Post("/transfers/:id/receive", orchestrationHandler.ReceiveTransfer)
	protected.Post("/jobs/:id/complete", orchestrationHandler.CompleteJob)

	// Compras y recepciones (protegido)
	pos := protected.Group("/purchase-orders")
	purchasingHandler := NewPurchasingHandler(deps.Purchasing)
	pos.Post("/", purchasingHandler.Create)
	pos.Get("/:id", purchasingHandler.Get)
	pos.Post("/:id/submit", purchasingHandler.Submit)
	pos.Post("/:id/approve", RequireRole("compras"), purchasingHandler.Approve)
	pos.Post("/:id/acknowledge", purchasingHandler.Acknowledge)
	pos.Post("/:id/cancel", RequireRole("compras"), purchasingHandler.Cancel)
	pos.Post("/:id/close", purchasingHandler.Close)
	pos.Post("/:id/receipts", purchasingHandler.ReceiveGoods)
}
