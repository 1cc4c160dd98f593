package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/tu-usuario/fulfillment-pro/internal/application/ledger"
	"github.com/tu-usuario/fulfillment-pro/internal/application/orchestration"
	"github.com/tu-usuario/fulfillment-pro/internal/application/propagation"
	"github.com/tu-usuario/fulfillment-pro/internal/application/purchasing"
	"github.com/tu-usuario/fulfillment-pro/internal/application/reservation"
	"github.com/tu-usuario/fulfillment-pro/internal/domain/fulfillment"
	"github.com/tu-usuario/fulfillment-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/fulfillment-pro/internal/interfaces/http"
	"github.com/tu-usuario/fulfillment-pro/pkg/config"
	"github.com/tu-usuario/fulfillment-pro/pkg/logger"
	"github.com/tu-usuario/fulfillment-pro/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	m := metrics.New()

	applyMovementUC := ledger.NewApplyMovementUseCase(txRunner, m)
	ledgerQueryUC := ledger.NewQueryUseCase(txRunner)
	reservationUC := reservation.NewUseCase(txRunner, m)

	orchCfg := orchestration.Config{
		CompanyDefaultPolicy: fulfillment.Policy(cfg.Fulfillment.DefaultPolicy),
		AllowCrossLocation:   cfg.Fulfillment.AllowCrossLocation,
	}
	generator := orchestration.NewPlanGenerator(txRunner, orchCfg, m, log.Component("planner"))
	executor := orchestration.NewExecutor(txRunner, reservationUC, m, log.Component("executor"))
	purchasingUC := purchasing.NewUseCase(txRunner, applyMovementUC, log.Component("purchasing"))
	propagationUC := propagation.NewUseCase(txRunner, applyMovementUC, reservationUC, generator, executor, log.Component("propagation"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ApplyMovement: applyMovementUC,
		LedgerQuery:   ledgerQueryUC,
		Reservations:  reservationUC,
		Generator:     generator,
		Executor:      executor,
		Propagation:   propagationUC,
		Purchasing:    purchasingUC,
		Metrics:       m,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
