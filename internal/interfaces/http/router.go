package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jhoicas/nova-salud-api/internal/application/catalog"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName     string
	CatalogUC   *catalog.CatalogUseCase
	Ledger      *sales.LedgerUseCase
	Metrics     *Metrics // nil = sin /metrics
	Logger      zerolog.Logger
	CORSOrigins string
}

// Router registra middlewares y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	origins := deps.CORSOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))
	app.Use(RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	// después del logger y las métricas: un panic llega a ambos como 500
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Catálogo
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	app.Get("/categorias", catalogHandler.ListCategories)
	app.Get("/productos", catalogHandler.ListProducts)
	app.Delete("/productos/:id", catalogHandler.DeleteProduct)

	// Libro de ventas
	ventas := app.Group("/ventas")
	saleHandler := NewSaleHandler(deps.Ledger)
	ventas.Post("/", saleHandler.Register)
	ventas.Get("/", saleHandler.List)
	ventas.Put("/:id", saleHandler.Update)
	ventas.Delete("/:id", saleHandler.Delete)
}
