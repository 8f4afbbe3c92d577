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

	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/internal/application/workflow"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
	"github.com/jhoicas/Inventario-erp/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-erp/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Inventario-erp/internal/interfaces/http"
	"github.com/jhoicas/Inventario-erp/pkg/config"
	"github.com/jhoicas/Inventario-erp/pkg/jwt"
	"github.com/jhoicas/Inventario-erp/pkg/logger"
)

// backend repositorios y runner de transacciones según APP_STORE.
type backend struct {
	documents repository.DocumentRepository
	movements repository.LedgerMovementRepository
	sequences repository.SequenceRepository
	uoms      repository.UOMRepository
	txRunner  inventory.TxRunner
	close     func()
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
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	policies, err := workflowPolicies(cfg.Workflow)
	if err != nil {
		log.Fatal().Err(err).Msg("políticas de documentos")
	}

	signer, err := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.Expiration)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer be.close()

	opts := make([]workflow.Option, 0, len(policies))
	for kind, p := range policies {
		opts = append(opts, workflow.WithPolicy(kind, p))
	}
	orch := workflow.New(inventory.NewNumberGenerator(be.sequences, nil), opts...)
	documentSvc := inventory.NewDocumentService(
		orch, be.documents, be.movements,
		inventory.NewFactorCache(be.uoms), be.txRunner, log.Component("documents"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario ERP API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents: documentSvc,
		Signer:    signer,
		Log:       log.Component("http"),
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

// openBackend conecta PostgreSQL (aplicando el esquema si DB_MIGRATE=true) o arma el store en memoria.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.App.Store == "memory" {
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &backend{
			documents: store.Documents(),
			movements: store.Movements(),
			sequences: store.Sequences(),
			uoms:      store.UOMs(),
			txRunner:  store.TxRunner(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &backend{
		documents: postgres.NewDocumentRepository(pool),
		movements: postgres.NewLedgerMovementRepository(pool),
		sequences: postgres.NewSequenceRepository(pool),
		uoms:      postgres.NewUOMRepository(pool),
		txRunner:  postgres.NewTxRunner(pool),
		close:     pool.Close,
	}, nil
}
