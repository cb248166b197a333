package entity

import "github.com/shopspring/decimal"

// Product representa un producto del catálogo.
// Stock solo lo modifica el libro de ventas (registrar, actualizar o eliminar una venta).
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	Stock       int64           // siempre >= 0
	CategoryID  *int64          // nil si el producto no tiene categoría
}

// ProductDetail es la proyección de listado: producto + nombre de su categoría (LEFT JOIN).
type ProductDetail struct {
	Product
	CategoryName *string
}
