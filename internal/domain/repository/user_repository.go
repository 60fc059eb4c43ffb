package repository

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// UserRepository lectura de usuarios. (nil, nil) si no existe.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
