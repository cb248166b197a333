package domain

import "errors"

// Errores de dominio (sin dependencias externas). Cada uno es una "clase" de error
// que la capa HTTP traduce a un código de estado.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// Error es un error de dominio con un mensaje para el cliente.
// Unwrap devuelve la clase (Kind), de modo que errors.Is(err, ErrNotFound) funciona.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError construye un error de dominio de la clase indicada.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errores concretos de la API de ventas.
var (
	ErrProductNotFound  = NewError(ErrNotFound, "Producto no encontrado")
	ErrSaleNotFound     = NewError(ErrNotFound, "Venta no encontrada")
	ErrInvalidSale      = NewError(ErrInvalidInput, "Datos de venta inválidos")
	ErrInvalidQuantity  = NewError(ErrInvalidInput, "Cantidad inválida")
	ErrInvalidID        = NewError(ErrInvalidInput, "id inválido")
	ErrProductHasSales  = NewError(ErrConflict, "El producto tiene ventas registradas")
	ErrStockForIncrease = NewError(ErrInsufficientStock, "Stock insuficiente para aumentar la cantidad")
)

// InsufficientStockOf devuelve el error de stock insuficiente nombrando el producto.
func InsufficientStockOf(productName string) *Error {
	return NewError(ErrInsufficientStock, "Stock insuficiente de "+productName)
}
