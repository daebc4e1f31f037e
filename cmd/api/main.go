package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Cafeteria-api/internal/application/expense"
	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/infrastructure/lock"
	"github.com/jhoicas/Cafeteria-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Cafeteria-api/internal/interfaces/http"
	"github.com/jhoicas/Cafeteria-api/pkg/config"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("lock_backend", cfg.Lock.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewInventoryItemRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Bloqueo por ítem: en memoria para una instancia, Redis si hay varias réplicas.
	var locker inventory.ItemLocker
	switch cfg.Lock.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Lock.TTL(), cfg.Lock.TTL()/2, log)
	default:
		locker = lock.NewMemoryLocker()
	}

	ledgerUC := inventory.NewLedgerUseCase(txRunner, locker, log)
	itemUC := inventory.NewItemUseCase(itemRepo, movementRepo, log)
	recipeUC := inventory.NewRecipeUseCase(ledgerUC)
	replenishmentUC := inventory.NewReplenishmentUseCase(itemRepo)
	costRecordUC := expense.NewCostRecordUseCase(txRunner, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cafeteria API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ItemUC:          itemUC,
		LedgerUC:        ledgerUC,
		RecipeUC:        recipeUC,
		ReplenishmentUC: replenishmentUC,
		CostRecordUC:    costRecordUC,
		JWTSecret:       cfg.JWT.Secret,
		Logger:          log,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if every := cfg.Expense.OverdueSweepMinutes; every > 0 {
		go sweepOverdue(sweepCtx, costRecordUC, time.Duration(every)*time.Minute, log)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// sweepOverdue persiste periódicamente el estado overdue de los registros con vencimiento pasado.
// Las lecturas ya derivan el estado; el barrido mantiene la columna útil para filtros SQL.
func sweepOverdue(ctx context.Context, uc *expense.CostRecordUseCase, every time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := uc.RefreshOverdue(ctx)
			if err != nil {
				log.Error().Err(err).Msg("barrido de vencidos")
				continue
			}
			if n > 0 {
				log.Info().Int("updated", n).Msg("registros marcados como vencidos")
			}
		}
	}
}
