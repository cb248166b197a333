package dto

import "time"

// RegisterSaleRequest body para POST /ventas.
type RegisterSaleRequest struct {
	ProductoID int64 `json:"producto_id"`
	Cantidad   int64 `json:"cantidad"`
}

// UpdateSaleRequest body para PUT /ventas/:id.
type UpdateSaleRequest struct {
	Cantidad int64 `json:"cantidad"`
}

// SaleResponse una venta tal como quedó registrada.
type SaleResponse struct {
	ID         int64     `json:"id"`
	ProductoID int64     `json:"producto_id"`
	Cantidad   int64     `json:"cantidad"`
	Fecha      time.Time `json:"fecha"`
}

// SaleCreatedResponse salida de POST /ventas.
type SaleCreatedResponse struct {
	Mensaje string        `json:"mensaje"`
	Venta   *SaleResponse `json:"venta,omitempty"`
}

// SaleListItem salida de GET /ventas (venta + nombre del producto).
type SaleListItem struct {
	ID         int64     `json:"id"`
	ProductoID int64     `json:"producto_id"`
	Nombre     string    `json:"nombre"`
	Cantidad   int64     `json:"cantidad"`
	Fecha      time.Time `json:"fecha"`
}
