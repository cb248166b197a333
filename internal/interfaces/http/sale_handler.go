package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
	"github.com/jhoicas/nova-salud-api/internal/application/sales"
)

// SaleHandler maneja las peticiones HTTP del libro de ventas.
type SaleHandler struct {
	uc *sales.LedgerUseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.LedgerUseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar venta
// @Description  Descuenta la cantidad del stock del producto en la misma transacción.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterSaleRequest  true  "producto_id, cantidad"
// @Success      200   {object}  dto.SaleCreatedResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /ventas [post]
func (h *SaleHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.RegisterSale(ledgerContext(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar ventas
// @Description  Ventas con el nombre del producto, más recientes primero.
// @Tags         sales
// @Produce      json
// @Success      200  {array}   dto.SaleListItem
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /ventas [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.ListSales(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar cantidad de una venta
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id    path  int                    true  "ID de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "cantidad"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /ventas/{id} [put]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpdateSale(ledgerContext(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar venta
// @Description  Devuelve la cantidad vendida al stock del producto.
// @Tags         sales
// @Produce      json
// @Param        id   path  int  true  "ID de la venta"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /ventas/{id} [delete]
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.DeleteSale(ledgerContext(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ledgerContext propaga el request id a los logs del libro de ventas.
func ledgerContext(c *fiber.Ctx) context.Context {
	return sales.WithRequestID(c.UserContext(), GetRequestID(c))
}
