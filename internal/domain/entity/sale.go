package entity

import "time"

// Sale representa una venta activa. Su existencia implica que Quantity ya fue
// descontada del stock del producto.
type Sale struct {
	ID        int64
	ProductID int64
	Quantity  int64 // siempre > 0
	CreatedAt time.Time
}

// SaleDetail es la proyección de listado: venta + nombre del producto.
type SaleDetail struct {
	Sale
	ProductName string
}
