package sales

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que la venta y el ajuste de stock se confirmen juntos o no se apliquen.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// Recorder recibe los eventos del libro de ventas (métricas).
type Recorder interface {
	SaleRegistered(quantity int64)
	SaleUpdated(delta int64)
	SaleDeleted(quantity int64)
	StockRejected()
}

// NopRecorder descarta los eventos.
type NopRecorder struct{}

func (NopRecorder) SaleRegistered(int64) {}
func (NopRecorder) SaleUpdated(int64)    {}
func (NopRecorder) SaleDeleted(int64)    {}
func (NopRecorder) StockRejected()       {}

type requestIDKey struct{}

// WithRequestID asocia el id de la petición al contexto; el libro lo incluye en sus logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
