package catalog

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/domain"
	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
	"github.com/jhoicas/nova-salud-api/internal/domain/repository"
)

// CatalogUseCase casos de uso del catálogo: categorías y productos. El stock no se edita aquí.
type CatalogUseCase struct {
	txRunner     TxRunner
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(
	txRunner TxRunner,
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) *CatalogUseCase {
	return &CatalogUseCase{
		txRunner:     txRunner,
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// ListCategories lista todas las categorías.
func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categoryRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryResponse{ID: c.ID, Nombre: c.Name})
	}
	return out, nil
}

// ListProducts lista los productos, opcionalmente de una sola categoría.
// Los productos sin categoría aparecen con categoria_nombre nulo.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, categoryID *int64) ([]dto.ProductResponse, error) {
	list, err := uc.productRepo.List(ctx, repository.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

// DeleteProduct elimina un producto. Se rechaza con Conflict si tiene ventas activas,
// porque esas ventas ya no podrían devolver su stock.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id int64) (*dto.MessageResponse, error) {
	if id <= 0 {
		return nil, domain.ErrProductNotFound
	}
	err := uc.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		saleRepo repository.SaleRepository,
	) error {
		product, err := productRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrProductNotFound
		}
		n, err := saleRepo.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrProductHasSales
		}
		return productRepo.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Mensaje: "Producto eliminado correctamente"}, nil
}

func toProductResponse(p *entity.ProductDetail) dto.ProductResponse {
	return dto.ProductResponse{
		ID:              p.ID,
		Nombre:          p.Name,
		Descripcion:     p.Description,
		Precio:          dto.NewPrice(p.Price),
		Stock:           p.Stock,
		CategoriaID:     p.CategoryID,
		CategoriaNombre: p.CategoryName,
	}
}
