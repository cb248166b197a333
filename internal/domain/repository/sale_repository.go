package repository

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si la venta no existe.
// UpdateQuantity y Delete devuelven domain.ErrSaleNotFound si no afectan ninguna fila.
type SaleRepository interface {
	// Create asigna ID y CreatedAt (si viene vacío) a la venta.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id int64) (*entity.Sale, error)
	// GetForUpdate obtiene la venta y bloquea su fila hasta el fin de la tx.
	GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error)
	UpdateQuantity(ctx context.Context, id, quantity int64) error
	Delete(ctx context.Context, id int64) error
	// ListDetailed lista las ventas con el nombre del producto, más recientes primero.
	ListDetailed(ctx context.Context) ([]*entity.SaleDetail, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}
