package catalog

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con repositorios atados a ella.
// Se usa para borrar un producto verificando en la misma tx que no tenga ventas.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error) error
}
