package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación de UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador. Pasar pool o tx (Querier).
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, name, role_id, division_id, is_active FROM users WHERE id = $1`
	var u entity.User
	err := r.q.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.RoleID, &u.DivisionID, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

var _ activity.Sink = (*ActivityLogRepo)(nil)

// ActivityLogRepo escribe el log de actividad de usuarios (tabla user_logs).
type ActivityLogRepo struct {
	q Querier
}

// NewActivityLogRepository construye el adaptador; normalmente sobre el pool, fuera de la tx del caso de uso.
func NewActivityLogRepository(q Querier) *ActivityLogRepo {
	return &ActivityLogRepo{q: q}
}

// Log inserta una entrada.
func (r *ActivityLogRepo) Log(ctx context.Context, actorID, message, sourceAddress string) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO user_logs (user_id, message, source_address) VALUES ($1, $2, $3)`,
		actorID, message, sourceAddress)
	if err != nil {
		return fmt.Errorf("insert user log: %w", err)
	}
	return nil
}
