package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/ledger"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// LedgerUseCase es el libro de ventas: registra, modifica y elimina ventas ajustando el stock
// del producto en la misma transacción (lectura con bloqueo de fila, validación, escritura).
type LedgerUseCase struct {
	txRunner TxRunner
	saleRepo repository.SaleRepository
	metrics  Recorder
	log      zerolog.Logger
}

// Option configura el LedgerUseCase.
type Option func(*LedgerUseCase)

// WithRecorder registra los eventos del libro en r.
func WithRecorder(r Recorder) Option {
	return func(uc *LedgerUseCase) { uc.metrics = r }
}

// WithLogger define el logger de los ajustes de stock (nivel debug).
func WithLogger(l zerolog.Logger) Option {
	return func(uc *LedgerUseCase) { uc.log = l }
}

// NewLedgerUseCase construye el caso de uso. saleRepo se usa para lecturas fuera de transacción.
func NewLedgerUseCase(txRunner TxRunner, saleRepo repository.SaleRepository, opts ...Option) *LedgerUseCase {
	uc := &LedgerUseCase{
		txRunner: txRunner,
		saleRepo: saleRepo,
		metrics:  NopRecorder{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RegisterSale registra una venta y descuenta su cantidad del stock del producto.
func (uc *LedgerUseCase) RegisterSale(ctx context.Context, in dto.RegisterSaleRequest) (*dto.SaleCreatedResponse, error) {
	if in.ProductoID <= 0 || !ledger.ValidQuantity(in.Cantidad) {
		return nil, domain.ErrInvalidSale
	}

	var (
		sale    *entity.Sale
		product *entity.Product
	)
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, in.ProductoID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrProductNotFound
		}
		if !ledger.CanDebit(p.Stock, in.Cantidad) {
			return domain.InsufficientStockOf(p.Name)
		}
		s := &entity.Sale{ProductID: p.ID, Quantity: in.Cantidad}
		if err := saleRepo.Create(ctx, s); err != nil {
			return err
		}
		if err := productRepo.AdjustStock(ctx, p.ID, -in.Cantidad); err != nil {
			return err
		}
		sale, product = s, p
		return nil
	})
	if err != nil {
		uc.rejected(err)
		return nil, err
	}

	uc.metrics.SaleRegistered(sale.Quantity)
	uc.log.Debug().
		Str("request_id", requestID(ctx)).
		Int64("sale_id", sale.ID).
		Int64("product_id", product.ID).
		Int64("stock_delta", -sale.Quantity).
		Msg("venta registrada")

	return &dto.SaleCreatedResponse{
		Mensaje: fmt.Sprintf("Venta registrada: %d unidad(es) de %s", sale.Quantity, product.Name),
		Venta:   toSaleResponse(sale),
	}, nil
}

// UpdateSale cambia la cantidad de una venta. Descuenta del stock la diferencia
// (nueva - anterior); si la cantidad baja, el stock se devuelve.
func (uc *LedgerUseCase) UpdateSale(ctx context.Context, saleID int64, in dto.UpdateSaleRequest) (*dto.MessageResponse, error) {
	if !ledger.ValidQuantity(in.Cantidad) {
		return nil, domain.ErrInvalidQuantity
	}
	if saleID <= 0 {
		return nil, domain.ErrSaleNotFound
	}

	var delta, productID int64
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		product, err := productRepo.GetForUpdate(ctx, sale.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		d := ledger.Delta(sale.Quantity, in.Cantidad)
		if !ledger.CanDebit(product.Stock, d) {
			return domain.ErrStockForIncrease
		}
		if err := saleRepo.UpdateQuantity(ctx, sale.ID, in.Cantidad); err != nil {
			return err
		}
		if d != 0 {
			if err := productRepo.AdjustStock(ctx, product.ID, -d); err != nil {
				return err
			}
		}
		delta, productID = d, product.ID
		return nil
	})
	if err != nil {
		uc.rejected(err)
		return nil, err
	}

	uc.metrics.SaleUpdated(delta)
	uc.log.Debug().
		Str("request_id", requestID(ctx)).
		Int64("sale_id", saleID).
		Int64("product_id", productID).
		Int64("stock_delta", -delta).
		Msg("venta actualizada")

	return &dto.MessageResponse{Mensaje: "Venta actualizada correctamente"}, nil
}

// DeleteSale elimina una venta y devuelve su cantidad al stock. Si el producto ya no existe
// la operación falla con NotFound en lugar de omitir la devolución.
func (uc *LedgerUseCase) DeleteSale(ctx context.Context, saleID int64) (*dto.MessageResponse, error) {
	if saleID <= 0 {
		return nil, domain.ErrSaleNotFound
	}

	var deleted *entity.Sale
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		sale, err := saleRepo.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrSaleNotFound
		}
		product, err := productRepo.GetForUpdate(ctx, sale.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		if err := saleRepo.Delete(ctx, sale.ID); err != nil {
			return err
		}
		if err := productRepo.AdjustStock(ctx, product.ID, sale.Quantity); err != nil {
			return err
		}
		deleted = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.SaleDeleted(deleted.Quantity)
	uc.log.Debug().
		Str("request_id", requestID(ctx)).
		Int64("sale_id", deleted.ID).
		Int64("product_id", deleted.ProductID).
		Int64("stock_delta", deleted.Quantity).
		Msg("venta eliminada")

	return &dto.MessageResponse{Mensaje: "Venta eliminada correctamente y stock actualizado"}, nil
}

// ListSales lista todas las ventas con el nombre del producto, más recientes primero.
func (uc *LedgerUseCase) ListSales(ctx context.Context) ([]dto.SaleListItem, error) {
	list, err := uc.saleRepo.ListDetailed(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleListItem, 0, len(list))
	for _, s := range list {
		items = append(items, dto.SaleListItem{
			ID:         s.ID,
			ProductoID: s.ProductID,
			Nombre:     s.ProductName,
			Cantidad:   s.Quantity,
			Fecha:      s.CreatedAt,
		})
	}
	return items, nil
}

func (uc *LedgerUseCase) rejected(err error) {
	if errors.Is(err, domain.ErrInsufficientStock) {
		uc.metrics.StockRejected()
	}
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	return &dto.SaleResponse{
		ID:         s.ID,
		ProductoID: s.ProductID,
		Cantidad:   s.Quantity,
		Fecha:      s.CreatedAt,
	}
}
