package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// schema crea las tres tablas si no existen. Los CHECK reflejan las invariantes del libro:
// stock nunca negativo y cantidad de venta siempre positiva.
const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price       NUMERIC(12,2) NOT NULL DEFAULT 0,
	stock       BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	category_id BIGINT REFERENCES categories(id)
);

CREATE TABLE IF NOT EXISTS sales (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id),
	quantity   BIGINT NOT NULL CHECK (quantity > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product_id);
CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at DESC);
`

// EnsureSchema crea las tablas e índices (idempotente).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Seed inserta categorías y productos con sus IDs fijos en una sola transacción.
// Las filas ya existentes se omiten; al final se ajustan las secuencias.
func Seed(ctx context.Context, pool *pgxpool.Pool, categories []entity.Category, products []entity.Product) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range categories {
		_, err := tx.Exec(ctx,
			`INSERT INTO categories (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Name,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("seed category %q: nombre duplicado: %w", c.Name, err)
			}
			return fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}
	for _, p := range products {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (id, name, description, price, stock, category_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID,
		)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}
	for _, table := range []string{"categories", "products"} {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table,
		))
		if err != nil {
			return fmt.Errorf("reset sequence %s: %w", table, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
