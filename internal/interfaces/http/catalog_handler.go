package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nova-salud-api/internal/application/catalog"
	"github.com/jhoicas/nova-salud-api/internal/domain"
)

// CatalogHandler maneja las peticiones HTTP de categorías y productos.
type CatalogHandler struct {
	uc *catalog.CatalogUseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// ListCategories godoc
// @Summary      Listar categorías
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   dto.CategoryResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /categorias [get]
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.uc.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListProducts godoc
// @Summary      Listar productos
// @Description  Incluye el nombre de la categoría; los productos sin categoría también aparecen.
// @Tags         catalog
// @Produce      json
// @Param        categoria_id  query  int  false  "Filtrar por categoría"
// @Success      200  {array}   dto.ProductResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /productos [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var categoryID *int64
	if raw := c.Query("categoria_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return writeError(c, domain.NewError(domain.ErrInvalidInput, "categoria_id inválido"))
		}
		categoryID = &id
	}
	out, err := h.uc.ListProducts(c.UserContext(), categoryID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DeleteProduct godoc
// @Summary      Eliminar producto
// @Description  Se rechaza si el producto tiene ventas registradas.
// @Tags         catalog
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /productos/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.DeleteProduct(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
