package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, name, description, price, stock, category_id`

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepo) get(ctx context.Context, query string, id int64) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// List lista productos con el nombre de su categoría (LEFT JOIN), filtrando opcionalmente por categoría.
func (r *ProductRepo) List(ctx context.Context, filter repository.ProductFilter) ([]*entity.ProductDetail, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.category_id, c.name
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.id`
	var args []any
	if filter.CategoryID != nil {
		query += ` WHERE p.category_id = $1`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY p.id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductDetail
	for rows.Next() {
		var d entity.ProductDetail
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Price, &d.Stock, &d.CategoryID, &d.CategoryName); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// AdjustStock suma delta al stock. El CHECK (stock >= 0) de la tabla rechaza un saldo negativo.
func (r *ProductRepo) AdjustStock(ctx context.Context, id, delta int64) error {
	_, err := r.q.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id = $1`, id, delta)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("adjust stock: el stock no puede quedar negativo: %w", err)
		}
		return fmt.Errorf("adjust stock: %w", err)
	}
	return nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
