package sales_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/memory"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/seed"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	paracetamolID = int64(1) // stock inicial 100
	ibuprofenoID  = int64(2) // stock inicial 1
)

type fixture struct {
	uc       *sales.LedgerUseCase
	store    *memory.Store
	products *memory.ProductRepo
	sales    *memory.SaleRepo
	rec      *countingRecorder
}

// newFixture arma el libro de ventas sobre un almacén en memoria con el catálogo inicial.
func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.NewStore(opts...)
	require.NoError(t, store.Seed(context.Background(), seed.Categories(), seed.Products()))
	saleRepo := memory.NewSaleRepository(store)
	rec := &countingRecorder{}
	return &fixture{
		uc:       sales.NewLedgerUseCase(store, saleRepo, sales.WithRecorder(rec)),
		store:    store,
		products: memory.NewProductRepository(store),
		sales:    saleRepo,
		rec:      rec,
	}
}

func (f *fixture) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p, "el producto %d debe existir", productID)
	return p.Stock
}

func (f *fixture) register(t *testing.T, productID, qty int64) int64 {
	t.Helper()
	out, err := f.uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: productID, Cantidad: qty})
	require.NoError(t, err)
	require.NotNil(t, out.Venta)
	return out.Venta.ID
}

// soldUnits suma las cantidades de las ventas activas de un producto.
func (f *fixture) soldUnits(t *testing.T, productID int64) int64 {
	t.Helper()
	list, err := f.sales.ListDetailed(context.Background())
	require.NoError(t, err)
	var total int64
	for _, s := range list {
		if s.ProductID == productID {
			total += s.Quantity
		}
	}
	return total
}

type countingRecorder struct {
	registered, updated, deleted, rejected int
}

func (r *countingRecorder) SaleRegistered(int64) { r.registered++ }
func (r *countingRecorder) SaleUpdated(int64)    { r.updated++ }
func (r *countingRecorder) SaleDeleted(int64)    { r.deleted++ }
func (r *countingRecorder) StockRejected()       { r.rejected++ }

// failingStockRunner envuelve un TxRunner y hace fallar AdjustStock dentro de la transacción,
// después de que la venta ya fue escrita.
type failingStockRunner struct {
	inner sales.TxRunner
}

func (r failingStockRunner) Run(ctx context.Context, fn func(repository.ProductRepository, repository.SaleRepository) error) error {
	return r.inner.Run(ctx, func(p repository.ProductRepository, s repository.SaleRepository) error {
		return fn(failingStockRepo{ProductRepository: p}, s)
	})
}

type failingStockRepo struct {
	repository.ProductRepository
}

var errDiskFull = errors.New("disk full")

func (failingStockRepo) AdjustStock(context.Context, int64, int64) error { return errDiskFull }

// ──────────────────────────────────────────────────────────────────────────────
// RegisterSale
// ──────────────────────────────────────────────────────────────────────────────

func TestRegisterSale_DescuentaStock(t *testing.T) {
	f := newFixture(t)

	out, err := f.uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: paracetamolID, Cantidad: 10})
	require.NoError(t, err)

	assert.Equal(t, "Venta registrada: 10 unidad(es) de Paracetamol", out.Mensaje)
	require.NotNil(t, out.Venta)
	assert.Equal(t, paracetamolID, out.Venta.ProductoID)
	assert.Equal(t, int64(10), out.Venta.Cantidad)
	assert.False(t, out.Venta.Fecha.IsZero(), "la venta debe tener fecha")

	assert.Equal(t, int64(90), f.stock(t, paracetamolID))
	assert.Equal(t, int64(10), f.soldUnits(t, paracetamolID))
	assert.Equal(t, 1, f.rec.registered)
}

func TestRegisterSale_StockExactoQuedaEnCero(t *testing.T) {
	f := newFixture(t)
	f.register(t, ibuprofenoID, 1)
	assert.Equal(t, int64(0), f.stock(t, ibuprofenoID))
}

func TestRegisterSale_StockInsuficiente_SinEfectos(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: ibuprofenoID, Cantidad: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Stock insuficiente de Ibuprofeno", err.Error())

	assert.Equal(t, int64(1), f.stock(t, ibuprofenoID), "el stock no debe cambiar")
	assert.Equal(t, int64(0), f.soldUnits(t, ibuprofenoID), "no debe crearse la venta")
	assert.Equal(t, 1, f.rec.rejected)
	assert.Equal(t, 0, f.rec.registered)
}

func TestRegisterSale_ProductoInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: 999, Cantidad: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Producto no encontrado", err.Error())
}

func TestRegisterSale_DatosInvalidos(t *testing.T) {
	f := newFixture(t)
	cases := []dto.RegisterSaleRequest{
		{ProductoID: paracetamolID, Cantidad: 0},
		{ProductoID: paracetamolID, Cantidad: -4},
		{ProductoID: 0, Cantidad: 1},
	}
	for _, in := range cases {
		_, err := f.uc.RegisterSale(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "entrada %+v", in)
	}
	assert.Equal(t, int64(100), f.stock(t, paracetamolID))
	assert.Equal(t, int64(0), f.soldUnits(t, paracetamolID))
}

func TestRegisterSale_FalloAlDescontar_HaceRollback(t *testing.T) {
	f := newFixture(t)
	uc := sales.NewLedgerUseCase(failingStockRunner{inner: f.store}, f.sales)

	_, err := uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: paracetamolID, Cantidad: 5})
	require.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, int64(100), f.stock(t, paracetamolID))
	list, err := f.sales.ListDetailed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list, "la venta insertada debe descartarse con el rollback")
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateSale
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateSale_ReducirCantidadDevuelveStock(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)
	require.Equal(t, int64(90), f.stock(t, paracetamolID))

	out, err := f.uc.UpdateSale(context.Background(), saleID, dto.UpdateSaleRequest{Cantidad: 5})
	require.NoError(t, err)
	assert.Equal(t, "Venta actualizada correctamente", out.Mensaje)

	assert.Equal(t, int64(95), f.stock(t, paracetamolID))
	sale, err := f.sales.GetByID(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), sale.Quantity)
}

func TestUpdateSale_AumentarCantidadDescuentaDiferencia(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)

	_, err := f.uc.UpdateSale(context.Background(), saleID, dto.UpdateSaleRequest{Cantidad: 25})
	require.NoError(t, err)

	assert.Equal(t, int64(75), f.stock(t, paracetamolID))
	assert.Equal(t, int64(25), f.soldUnits(t, paracetamolID))
}

func TestUpdateSale_AumentoSinStock_SinEfectos(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, ibuprofenoID, 1) // stock queda en 0

	_, err := f.uc.UpdateSale(context.Background(), saleID, dto.UpdateSaleRequest{Cantidad: 6})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "Stock insuficiente para aumentar la cantidad", err.Error())

	assert.Equal(t, int64(0), f.stock(t, ibuprofenoID))
	sale, err := f.sales.GetByID(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sale.Quantity)
}

func TestUpdateSale_MismaCantidadNoCambiaStock(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)

	_, err := f.uc.UpdateSale(context.Background(), saleID, dto.UpdateSaleRequest{Cantidad: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(90), f.stock(t, paracetamolID))
}

func TestUpdateSale_CantidadInvalida(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)

	_, err := f.uc.UpdateSale(context.Background(), saleID, dto.UpdateSaleRequest{Cantidad: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "Cantidad inválida", err.Error())
	assert.Equal(t, int64(90), f.stock(t, paracetamolID))
}

func TestUpdateSale_VentaInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.UpdateSale(context.Background(), 42, dto.UpdateSaleRequest{Cantidad: 3})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Venta no encontrada", err.Error())
}

// ──────────────────────────────────────────────────────────────────────────────
// DeleteSale
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteSale_DevuelveStock(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)

	out, err := f.uc.DeleteSale(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, "Venta eliminada correctamente y stock actualizado", out.Mensaje)

	assert.Equal(t, int64(100), f.stock(t, paracetamolID))
	sale, err := f.sales.GetByID(context.Background(), saleID)
	require.NoError(t, err)
	assert.Nil(t, sale)
	assert.Equal(t, 1, f.rec.deleted)
}

func TestDeleteSale_DosVecesNoDuplicaCredito(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)

	_, err := f.uc.DeleteSale(context.Background(), saleID)
	require.NoError(t, err)
	_, err = f.uc.DeleteSale(context.Background(), saleID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int64(100), f.stock(t, paracetamolID))
}

func TestDeleteSale_ProductoEliminado_RetornaNotFound(t *testing.T) {
	f := newFixture(t)
	saleID := f.register(t, paracetamolID, 10)
	// Borrado directo en el almacén, saltándose la regla del catálogo.
	require.NoError(t, f.products.Delete(context.Background(), paracetamolID))

	_, err := f.uc.DeleteSale(context.Background(), saleID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Producto no encontrado", err.Error())

	sale, err := f.sales.GetByID(context.Background(), saleID)
	require.NoError(t, err)
	assert.NotNil(t, sale, "la venta no debe borrarse si no se pudo devolver el stock")
}

// ──────────────────────────────────────────────────────────────────────────────
// ListSales e invariante
// ──────────────────────────────────────────────────────────────────────────────

func TestListSales_MasRecientesPrimero(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	f := newFixture(t, memory.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	first := f.register(t, paracetamolID, 1)
	second := f.register(t, 3, 2)
	third := f.register(t, paracetamolID, 3)

	list, err := f.uc.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{list[0].ID, list[1].ID, list[2].ID})
	assert.Equal(t, "Amoxicilina", list[1].Nombre)
	assert.Equal(t, int64(2), list[1].Cantidad)
}

func TestListSales_Vacio(t *testing.T) {
	f := newFixture(t)
	list, err := f.uc.ListSales(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestInvariante_StockMasVendidoConstante(t *testing.T) {
	f := newFixture(t)
	const initial = int64(100)
	check := func() {
		t.Helper()
		assert.Equal(t, initial, f.stock(t, paracetamolID)+f.soldUnits(t, paracetamolID))
	}

	a := f.register(t, paracetamolID, 30)
	check()
	b := f.register(t, paracetamolID, 50)
	check()
	_, err := f.uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: paracetamolID, Cantidad: 21})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	check()
	_, err = f.uc.UpdateSale(context.Background(), a, dto.UpdateSaleRequest{Cantidad: 50})
	require.NoError(t, err)
	check()
	_, err = f.uc.UpdateSale(context.Background(), b, dto.UpdateSaleRequest{Cantidad: 51})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	check()
	_, err = f.uc.DeleteSale(context.Background(), b)
	require.NoError(t, err)
	check()
	_, err = f.uc.UpdateSale(context.Background(), a, dto.UpdateSaleRequest{Cantidad: 1})
	require.NoError(t, err)
	check()

	assert.Equal(t, int64(99), f.stock(t, paracetamolID))
}

func TestRegisterSale_Concurrente_NoVendeDeMas(t *testing.T) {
	store := memory.NewStore()
	categoryID := int64(1)
	require.NoError(t, store.Seed(context.Background(),
		[]entity.Category{{ID: categoryID, Name: "Analgésicos"}},
		[]entity.Product{{ID: 1, Name: "Paracetamol", Price: decimal.NewFromFloat(0.5), Stock: 50, CategoryID: &categoryID}},
	))
	uc := sales.NewLedgerUseCase(store, memory.NewSaleRepository(store))

	const workers = 80
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := uc.RegisterSale(context.Background(), dto.RegisterSaleRequest{ProductoID: 1, Cantidad: 1})
			errs <- err
		}()
	}
	var ok, rejected int
	for i := 0; i < workers; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			rejected++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 50, ok)
	assert.Equal(t, 30, rejected)

	p, err := memory.NewProductRepository(store).GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Stock)
}

func TestLedger_LogIncluyeRequestID(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Seed(context.Background(), seed.Categories(), seed.Products()))
	var buf bytes.Buffer
	uc := sales.NewLedgerUseCase(store, memory.NewSaleRepository(store),
		sales.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

	ctx := sales.WithRequestID(context.Background(), "req-42")
	out, err := uc.RegisterSale(ctx, dto.RegisterSaleRequest{ProductoID: paracetamolID, Cantidad: 1})
	require.NoError(t, err)
	_, err = uc.DeleteSale(ctx, out.Venta.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`"request_id":"req-42"`)))
}
