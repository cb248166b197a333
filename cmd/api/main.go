package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nova-salud-api/internal/application/catalog"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/memory"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/postgres"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/seed"
	httpRouter "github.com/jhoicas/nova-salud-api/internal/interfaces/http"
	"github.com/jhoicas/nova-salud-api/pkg/config"
	"github.com/jhoicas/nova-salud-api/pkg/logger"
)

// store agrupa los puertos de persistencia que usan los casos de uso.
type store struct {
	txRunner     sales.TxRunner // mismo contrato que catalog.TxRunner
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	saleRepo     repository.SaleRepository
	close        func()
}

// @title          Nova Salud API
// @version        1.0
// @description    Catálogo y libro de ventas de la farmacia Nova Salud.
// @BasePath       /
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
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer st.close()

	metrics := httpRouter.NewMetrics("novasalud")
	ledgerUC := sales.NewLedgerUseCase(st.txRunner, st.saleRepo,
		sales.WithRecorder(metrics),
		sales.WithLogger(log.Zerolog()),
	)
	catalogUC := catalog.NewCatalogUseCase(st.txRunner, st.categoryRepo, st.productRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	// Swagger UI en local: http://localhost:<port>/docs
	if cfg.Swagger.Enabled {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Swagger.FilePath,
			Path:     "docs",
			Title:    "Nova Salud API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AppName:     cfg.App.Name,
		CatalogUC:   catalogUC,
		Ledger:      ledgerUC,
		Metrics:     metrics,
		Logger:      log.Zerolog(),
		CORSOrigins: cfg.HTTP.CORSOrigins,
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

// openStore crea el almacén según STORE_DRIVER y carga el catálogo inicial si corresponde.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*store, error) {
	if cfg.Store.Driver == config.StoreMemory {
		mem := memory.NewStore()
		if err := mem.Seed(ctx, seed.Categories(), seed.Products()); err != nil {
			return nil, err
		}
		log.Info().Msg("almacén en memoria con catálogo inicial")
		return &store{
			txRunner:     mem,
			categoryRepo: memory.NewCategoryRepository(mem),
			productRepo:  memory.NewProductRepository(mem),
			saleRepo:     memory.NewSaleRepository(mem),
			close:        func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.Store.Seed {
		if err := postgres.Seed(ctx, pool, seed.Categories(), seed.Products()); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("catálogo inicial verificado en PostgreSQL")
	}
	return &store{
		txRunner:     postgres.NewTxRunner(pool),
		categoryRepo: postgres.NewCategoryRepository(pool),
		productRepo:  postgres.NewProductRepository(pool),
		saleRepo:     postgres.NewSaleRepository(pool),
		close:        pool.Close,
	}, nil
}
