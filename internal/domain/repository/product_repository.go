package repository

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// ProductFilter filtros opcionales del listado de productos.
type ProductFilter struct {
	CategoryID *int64
}

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*entity.ProductDetail, error)
	// AdjustStock suma delta al stock (negativo = descuento).
	AdjustStock(ctx context.Context, id, delta int64) error
	Delete(ctx context.Context, id int64) error
}
