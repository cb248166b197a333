package ledger

// Reglas puras de stock del libro de ventas (servicio de dominio, sin I/O).
//
// Invariante: stock(p) + Σ cantidad(ventas activas de p) es constante entre operaciones.

// ValidQuantity indica si una cantidad de venta es válida (> 0).
func ValidQuantity(q int64) bool {
	return q > 0
}

// CanDebit indica si el stock alcanza para descontar qty unidades.
func CanDebit(stock, qty int64) bool {
	return qty <= 0 || stock >= qty
}

// Delta es la diferencia a descontar del stock al cambiar la cantidad de una venta.
// Negativo cuando la cantidad baja (el stock se devuelve).
func Delta(oldQty, newQty int64) int64 {
	return newQty - oldQty
}
