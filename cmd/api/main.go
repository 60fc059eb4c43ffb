package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/application/opname"
	"github.com/ciptastok/opname-api/internal/domain/repository"
	"github.com/ciptastok/opname-api/internal/infrastructure/memstore"
	"github.com/ciptastok/opname-api/internal/infrastructure/postgres"
	"github.com/ciptastok/opname-api/internal/infrastructure/spreadsheet"
	httpRouter "github.com/ciptastok/opname-api/internal/interfaces/http"
	"github.com/ciptastok/opname-api/pkg/config"
	"github.com/ciptastok/opname-api/pkg/logger"
	"github.com/ciptastok/opname-api/pkg/retry"
)

// txRunner lo cumplen postgres.TxRunner y memstore.TxRunner.
type txRunner interface {
	Run(ctx context.Context, fn func(r repository.Repositories) error) error
}

type storage struct {
	tx    txRunner
	repos repository.Repositories
	sink  activity.Sink
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage {
	if cfg.App.Storage == "memory" {
		log.Warn().Msg("APP_STORAGE=memory: los datos se pierden al reiniciar")
		store := memstore.New()
		return storage{tx: memstore.NewTxRunner(store), repos: store.Repositories(), sink: store, close: func() {}}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return storage{
		tx:    postgres.NewTxRunner(pool, cfg.DB.AcquireTimeout),
		repos: postgres.NewRepositories(pool),
		sink:  postgres.NewActivityLogRepository(pool),
		close: pool.Close,
	}
}

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
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	st := openStorage(context.Background(), cfg, log)
	defer st.close()

	rec := activity.NewRecorder(st.sink, log)
	opnameUC := opname.NewUseCase(st.tx, st.repos, rec, log, opname.Config{
		AdminRoleID: cfg.Opname.AdminRoleID,
		DeleteRetry: retry.Policy{
			MaxAttempts: cfg.Opname.DeleteMaxAttempts,
			Backoff:     retry.Linear(cfg.Opname.DeleteBackoff),
		},
	})
	ingestUC := ingest.NewUseCase(st.tx, spreadsheet.NewReader(), rec, log, ingest.Config{
		AdminRoleID:  cfg.Opname.AdminRoleID,
		MaxRowErrors: cfg.Opname.MaxRowErrors,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OpnameUC:    opnameUC,
		IngestUC:    ingestUC,
		JWTSecret:   cfg.JWT.Secret,
		AdminRoleID: cfg.Opname.AdminRoleID,
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
	// Escrituras pendientes del log de actividad antes de cerrar el pool.
	rec.Wait()

	log.Info().Msg("aplicación detenida")
}
