package repository

import (
	"context"

	"github.com/jhoicas/nova-salud-api/internal/domain/entity"
)

// CategoryRepository define el puerto de persistencia para Category (DIP).
type CategoryRepository interface {
	List(ctx context.Context) ([]*entity.Category, error)
}
