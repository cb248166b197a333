package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
	"github.com/jhoicas/nova-salud-api/internal/infrastructure/seed"
	"github.com/jhoicas/nova-salud-api/pkg/config"
)

func TestPgErrorCodes(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	check := fmt.Errorf("update: %w", &pgconn.PgError{Code: "23514"})

	assert.True(t, isUniqueViolation(unique))
	assert.False(t, isUniqueViolation(check))
	assert.True(t, isCheckViolation(check))
	assert.False(t, isCheckViolation(errors.New("otro")))
}

// testPool abre la BD de TEST_DATABASE_URL con el esquema y el catálogo inicial recién cargados.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE sales, products, categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	require.NoError(t, Seed(ctx, pool, seed.Categories(), seed.Products()))
	return pool
}

func TestLedger_Postgres(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ledger := sales.NewLedgerUseCase(NewTxRunner(pool), NewSaleRepository(pool))
	products := NewProductRepository(pool)

	out, err := ledger.RegisterSale(ctx, dto.RegisterSaleRequest{ProductoID: 1, Cantidad: 10})
	require.NoError(t, err)
	require.NotNil(t, out.Venta)

	p, err := products.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(90), p.Stock)

	_, err = ledger.RegisterSale(ctx, dto.RegisterSaleRequest{ProductoID: 2, Cantidad: 5})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = ledger.UpdateSale(ctx, out.Venta.ID, dto.UpdateSaleRequest{Cantidad: 5})
	require.NoError(t, err)
	p, _ = products.GetByID(ctx, 1)
	assert.Equal(t, int64(95), p.Stock)

	list, err := ledger.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Paracetamol", list[0].Nombre)

	_, err = ledger.DeleteSale(ctx, out.Venta.ID)
	require.NoError(t, err)
	p, _ = products.GetByID(ctx, 1)
	assert.Equal(t, int64(100), p.Stock)
}

func TestProductRepo_ListConCategoria(t *testing.T) {
	pool := testPool(t)
	cat := int64(2)
	list, err := NewProductRepository(pool).List(context.Background(), repository.ProductFilter{CategoryID: &cat})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].CategoryName)
	assert.Equal(t, "Antibióticos", *list[0].CategoryName)
	assert.Equal(t, "1.2", list[0].Price.String())
}

func TestAdjustStock_CheckRechazaNegativo(t *testing.T) {
	pool := testPool(t)
	err := NewProductRepository(pool).AdjustStock(context.Background(), 2, -5)
	require.Error(t, err)
	assert.True(t, isCheckViolation(err))
}

func TestDeleteSale_ConcurrenteDevuelveStockUnaVez(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ledger := sales.NewLedgerUseCase(NewTxRunner(pool), NewSaleRepository(pool))

	out, err := ledger.RegisterSale(ctx, dto.RegisterSaleRequest{ProductoID: 1, Cantidad: 10})
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.DeleteSale(ctx, out.Venta.ID)
		}(i)
	}
	wg.Wait()

	var ok, notFound int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrNotFound):
			notFound++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, notFound)

	p, err := NewProductRepository(pool).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Stock)
}

func TestUpdateSale_ConcurrenteConservaUnidades(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	ledger := sales.NewLedgerUseCase(NewTxRunner(pool), NewSaleRepository(pool))
	saleRepo := NewSaleRepository(pool)

	out, err := ledger.RegisterSale(ctx, dto.RegisterSaleRequest{ProductoID: 1, Cantidad: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, qty := range []int64{20, 5, 15, 30, 1, 12} {
		wg.Add(1)
		go func(qty int64) {
			defer wg.Done()
			_, err := ledger.UpdateSale(ctx, out.Venta.ID, dto.UpdateSaleRequest{Cantidad: qty})
			assert.NoError(t, err)
		}(qty)
	}
	wg.Wait()

	sale, err := saleRepo.GetByID(ctx, out.Venta.ID)
	require.NoError(t, err)
	require.NotNil(t, sale)
	p, err := NewProductRepository(pool).GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.Stock+sale.Quantity, "stock + unidades vendidas debe conservarse")
}

func TestSaleRepo_DeleteInexistente(t *testing.T) {
	pool := testPool(t)
	repo := NewSaleRepository(pool)
	assert.ErrorIs(t, repo.Delete(context.Background(), 999), domain.ErrSaleNotFound)
	assert.ErrorIs(t, repo.UpdateQuantity(context.Background(), 999, 3), domain.ErrSaleNotFound)
}
