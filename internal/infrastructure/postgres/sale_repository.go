package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste una venta. ID y created_at los asigna la BD (DEFAULT now()) salvo que CreatedAt venga definido.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	var createdAt *time.Time
	if !sale.CreatedAt.IsZero() {
		createdAt = &sale.CreatedAt
	}
	query := `
		INSERT INTO sales (product_id, quantity, created_at)
		VALUES ($1, $2, COALESCE($3, now()))
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, query, sale.ProductID, sale.Quantity, createdAt).Scan(&sale.ID, &sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

const saleColumns = `id, product_id, quantity, created_at`

// GetByID obtiene una venta por ID.
func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate obtiene la venta y bloquea la fila (SELECT FOR UPDATE): dos tx sobre la
// misma venta se ejecutan una detrás de otra y la segunda ve el estado confirmado.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query string, id int64) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.ProductID, &s.Quantity, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// UpdateQuantity cambia la cantidad de una venta.
func (r *SaleRepo) UpdateQuantity(ctx context.Context, id, quantity int64) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

// Delete elimina una venta por ID.
func (r *SaleRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

// ListDetailed lista las ventas con el nombre del producto, más recientes primero.
func (r *SaleRepo) ListDetailed(ctx context.Context) ([]*entity.SaleDetail, error) {
	query := `
		SELECT s.id, s.product_id, s.quantity, s.created_at, p.name
		FROM sales s
		JOIN products p ON s.product_id = p.id
		ORDER BY s.created_at DESC, s.id DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var list []*entity.SaleDetail
	for rows.Next() {
		var d entity.SaleDetail
		if err := rows.Scan(&d.ID, &d.ProductID, &d.Quantity, &d.CreatedAt, &d.ProductName); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// CountByProduct cuenta las ventas activas de un producto.
func (r *SaleRepo) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sales WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}
	return n, nil
}
