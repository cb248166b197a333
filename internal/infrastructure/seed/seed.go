// Package seed contiene el catálogo inicial de la farmacia (categorías y productos fijos).
package seed

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// Categories devuelve las 4 categorías iniciales (IDs 1..4).
func Categories() []entity.Category {
	return []entity.Category{
		{ID: 1, Name: "Analgésicos"},
		{ID: 2, Name: "Antibióticos"},
		{ID: 3, Name: "Vitaminas"},
		{ID: 4, Name: "Cuidado Personal"},
	}
}

// Products devuelve los 8 productos iniciales (IDs 1..8) con su stock de arranque.
func Products() []entity.Product {
	return []entity.Product{
		product(1, "Paracetamol", "Medicamento analgésico", "0.50", 100, 1),
		product(2, "Ibuprofeno", "Medicamento antiinflamatorio", "0.75", 1, 1),
		product(3, "Amoxicilina", "Antibiótico penicilínico", "1.20", 80, 2),
		product(4, "Loratadina", "Antihistamínico para alergias", "0.65", 120, 2),
		product(5, "Multivitamínico", "Vitaminas diarias", "0.70", 150, 3),
		product(6, "Metformina", "Medicamento para diabetes", "0.90", 60, 3),
		product(7, "Jabón Liquido", "Cuidado personal", "1.00", 200, 4),
		product(8, "Crema Antiséptica", "Cuidado personal", "1.10", 90, 4),
	}
}

func product(id int64, name, description, price string, stock, categoryID int64) entity.Product {
	return entity.Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		CategoryID:  &categoryID,
	}
}
