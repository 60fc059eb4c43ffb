package repository

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los Get* devuelven (nil, nil) si no existe.
type ProductRepository interface {
	// UpsertByCode inserta o actualiza los campos maestros por código y devuelve el ID.
	UpsertByCode(ctx context.Context, product *entity.Product) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
}
