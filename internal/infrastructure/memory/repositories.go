package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var (
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.SaleRepository     = (*SaleRepo)(nil)
)

// errNegativeStock equivale al CHECK (stock >= 0) de la tabla products.
var errNegativeStock = errors.New("el stock no puede quedar negativo")

// CategoryRepo implementación en memoria de CategoryRepository.
type CategoryRepo struct {
	s *Store
}

// NewCategoryRepository construye el repositorio de categorías.
func NewCategoryRepository(s *Store) *CategoryRepo {
	return &CategoryRepo{s: s}
}

// List devuelve las categorías ordenadas por ID.
func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	var list []*entity.Category
	_ = r.s.view(nil, func(st *state) error {
		list = make([]*entity.Category, 0, len(st.categories))
		for _, c := range st.categories {
			c := c
			list = append(list, &c)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// ProductRepo implementación en memoria de ProductRepository (fuera o dentro de una tx).
type ProductRepo struct {
	s  *Store
	tx *state
}

// NewProductRepository construye el repositorio de productos fuera de transacción.
func NewProductRepository(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	_ = r.s.view(r.tx, func(st *state) error {
		if p, ok := st.products[id]; ok {
			p = copyProduct(p)
			out = &p
		}
		return nil
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID: la tx ya tiene el lock exclusivo del Store.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// List lista productos con el nombre de su categoría (nil si no tiene o no existe).
func (r *ProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]*entity.ProductDetail, error) {
	var list []*entity.ProductDetail
	_ = r.s.view(r.tx, func(st *state) error {
		for _, p := range st.products {
			if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
				continue
			}
			d := &entity.ProductDetail{Product: copyProduct(p)}
			if p.CategoryID != nil {
				if c, ok := st.categories[*p.CategoryID]; ok {
					name := c.Name
					d.CategoryName = &name
				}
			}
			list = append(list, d)
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// AdjustStock suma delta al stock del producto.
func (r *ProductRepo) AdjustStock(_ context.Context, id, delta int64) error {
	return r.s.view(r.tx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return nil
		}
		if p.Stock+delta < 0 {
			return fmt.Errorf("adjust stock: %w", errNegativeStock)
		}
		p.Stock += delta
		st.products[id] = p
		return nil
	})
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	return r.s.view(r.tx, func(st *state) error {
		delete(st.products, id)
		return nil
	})
}

// SaleRepo implementación en memoria de SaleRepository (fuera o dentro de una tx).
type SaleRepo struct {
	s  *Store
	tx *state
}

// NewSaleRepository construye el repositorio de ventas fuera de transacción.
func NewSaleRepository(s *Store) *SaleRepo {
	return &SaleRepo{s: s}
}

// Create persiste una venta, asignando ID y fecha.
func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.s.view(r.tx, func(st *state) error {
		st.lastSale++
		sale.ID = st.lastSale
		if sale.CreatedAt.IsZero() {
			sale.CreatedAt = r.s.now()
		}
		st.sales[sale.ID] = *sale
		return nil
	})
}

// GetByID obtiene una venta por ID.
func (r *SaleRepo) GetByID(_ context.Context, id int64) (*entity.Sale, error) {
	var out *entity.Sale
	_ = r.s.view(r.tx, func(st *state) error {
		if sale, ok := st.sales[id]; ok {
			out = &sale
		}
		return nil
	})
	return out, nil
}

// GetForUpdate en memoria equivale a GetByID: la tx ya tiene el lock exclusivo del Store.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

// UpdateQuantity cambia la cantidad de una venta.
func (r *SaleRepo) UpdateQuantity(_ context.Context, id, quantity int64) error {
	return r.s.view(r.tx, func(st *state) error {
		sale, ok := st.sales[id]
		if !ok {
			return domain.ErrSaleNotFound
		}
		sale.Quantity = quantity
		st.sales[id] = sale
		return nil
	})
}

// Delete elimina una venta por ID.
func (r *SaleRepo) Delete(_ context.Context, id int64) error {
	return r.s.view(r.tx, func(st *state) error {
		if _, ok := st.sales[id]; !ok {
			return domain.ErrSaleNotFound
		}
		delete(st.sales, id)
		return nil
	})
}

// ListDetailed lista las ventas cuyo producto existe (JOIN), más recientes primero.
func (r *SaleRepo) ListDetailed(_ context.Context) ([]*entity.SaleDetail, error) {
	var list []*entity.SaleDetail
	_ = r.s.view(r.tx, func(st *state) error {
		for _, sale := range st.sales {
			p, ok := st.products[sale.ProductID]
			if !ok {
				continue
			}
			list = append(list, &entity.SaleDetail{Sale: sale, ProductName: p.Name})
		}
		return nil
	})
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// CountByProduct cuenta las ventas activas de un producto.
func (r *SaleRepo) CountByProduct(_ context.Context, productID int64) (int64, error) {
	var n int64
	_ = r.s.view(r.tx, func(st *state) error {
		for _, sale := range st.sales {
			if sale.ProductID == productID {
				n++
			}
		}
		return nil
	})
	return n, nil
}
