// Package memory implementa los puertos de persistencia en memoria, con transacciones
// serializadas por un único mutex (un escritor a la vez, como una BD de una sola conexión).
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/nova-salud-api/internal/application/catalog"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// Ensure Store implements sales.TxRunner and catalog.TxRunner.
var _ sales.TxRunner = (*Store)(nil)
var _ catalog.TxRunner = (*Store)(nil)

// state es el contenido completo de la "base de datos".
type state struct {
	categories    map[int64]entity.Category
	products      map[int64]entity.Product
	sales         map[int64]entity.Sale
	categoryNames map[string]int64
	lastCategory  int64
	lastProduct   int64
	lastSale      int64
}

func newState() *state {
	return &state{
		categories:    make(map[int64]entity.Category),
		products:      make(map[int64]entity.Product),
		sales:         make(map[int64]entity.Sale),
		categoryNames: make(map[string]int64),
	}
}

// clone copia el estado para que una transacción trabaje sin tocar el original.
func (s *state) clone() *state {
	c := &state{
		categories:    make(map[int64]entity.Category, len(s.categories)),
		products:      make(map[int64]entity.Product, len(s.products)),
		sales:         make(map[int64]entity.Sale, len(s.sales)),
		categoryNames: make(map[string]int64, len(s.categoryNames)),
		lastCategory:  s.lastCategory,
		lastProduct:   s.lastProduct,
		lastSale:      s.lastSale,
	}
	for id, cat := range s.categories {
		c.categories[id] = cat
	}
	for name, id := range s.categoryNames {
		c.categoryNames[name] = id
	}
	for id, p := range s.products {
		c.products[id] = copyProduct(p)
	}
	for id, sale := range s.sales {
		c.sales[id] = sale
	}
	return c
}

func copyProduct(p entity.Product) entity.Product {
	if p.CategoryID != nil {
		id := *p.CategoryID
		p.CategoryID = &id
	}
	return p
}

// Store almacén en memoria. Es a la vez TxRunner para el libro de ventas y el catálogo.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// Option configura el Store.
type Option func(*Store)

// WithClock reemplaza el reloj usado para la fecha de las ventas.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore crea un almacén vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserta categorías y productos con sus IDs. Es idempotente: los IDs existentes se omiten.
func (s *Store) Seed(_ context.Context, categories []entity.Category, products []entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		if _, ok := s.st.categories[c.ID]; ok {
			continue
		}
		if _, dup := s.st.categoryNames[c.Name]; dup {
			return fmt.Errorf("seed category %q: nombre duplicado", c.Name)
		}
		s.st.categories[c.ID] = c
		s.st.categoryNames[c.Name] = c.ID
		s.st.lastCategory = max(s.st.lastCategory, c.ID)
	}
	for _, p := range products {
		if _, ok := s.st.products[p.ID]; ok {
			continue
		}
		if p.Stock < 0 {
			return fmt.Errorf("seed product %q: %w", p.Name, errNegativeStock)
		}
		s.st.products[p.ID] = copyProduct(p)
		s.st.lastProduct = max(s.st.lastProduct, p.ID)
	}
	return nil
}

// Run ejecuta fn con repositorios atados a una copia del estado; si fn no falla, la copia
// reemplaza al estado (Commit), si falla se descarta (Rollback).
func (s *Store) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	saleRepo repository.SaleRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	work := s.st.clone()
	if err := fn(&ProductRepo{s: s, tx: work}, &SaleRepo{s: s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.st = work
	return nil
}

// view ejecuta fn sobre el estado de la tx o, fuera de una tx, sobre el estado compartido con el lock tomado.
func (s *Store) view(tx *state, fn func(st *state) error) error {
	if tx != nil {
		return fn(tx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
