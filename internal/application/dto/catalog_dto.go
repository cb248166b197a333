package dto

import "github.com/shopspring/decimal"

// CategoryResponse salida de GET /categorias.
type CategoryResponse struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// ProductResponse salida de GET /productos (producto + nombre de categoría).
type ProductResponse struct {
	ID              int64           `json:"id"`
	Nombre          string          `json:"nombre"`
	Descripcion     string          `json:"descripcion"`
	Precio          Price           `json:"precio"`
	Stock           int64           `json:"stock"`
	CategoriaID     *int64          `json:"categoria_id"`
	CategoriaNombre *string         `json:"categoria_nombre"`
}

// Price precio serializado como número JSON (0.5), no como string.
type Price struct {
	decimal.Decimal
}

// NewPrice envuelve un decimal.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d}
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.String()), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	return p.Decimal.UnmarshalJSON(b)
}
