package repository

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// DivisionRepository lectura de divisiones (el CRUD vive en el servicio de master data).
type DivisionRepository interface {
	List(ctx context.Context) ([]*entity.Division, error)
	GetByID(ctx context.Context, id string) (*entity.Division, error)
}

// ShelfRepository lectura de raks y alta perezosa durante la ingesta.
type ShelfRepository interface {
	List(ctx context.Context) ([]*entity.Shelf, error)
	GetByID(ctx context.Context, id string) (*entity.Shelf, error)
	// EnsureByLabel inserta el rak si no existe (sin distinguir mayúsculas) y devuelve su ID.
	// Dos ingestas concurrentes con la misma etiqueta obtienen el mismo ID.
	EnsureByLabel(ctx context.Context, label string) (string, error)
}
