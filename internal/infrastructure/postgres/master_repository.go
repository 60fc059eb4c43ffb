package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var (
	_ repository.DivisionRepository = (*DivisionRepo)(nil)
	_ repository.ShelfRepository    = (*ShelfRepo)(nil)
)

// DivisionRepo lectura de divisiones.
type DivisionRepo struct {
	q Querier
}

// NewDivisionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDivisionRepository(q Querier) *DivisionRepo {
	return &DivisionRepo{q: q}
}

// List todas las divisiones ordenadas por nombre.
func (r *DivisionRepo) List(ctx context.Context) ([]*entity.Division, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name FROM division ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list divisions: %w", err)
	}
	defer rows.Close()
	var out []*entity.Division
	for rows.Next() {
		var d entity.Division
		if err := rows.Scan(&d.ID, &d.Code, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// GetByID obtiene una división por ID.
func (r *DivisionRepo) GetByID(ctx context.Context, id string) (*entity.Division, error) {
	var d entity.Division
	err := r.q.QueryRow(ctx, `SELECT id, code, name FROM division WHERE id = $1`, id).Scan(&d.ID, &d.Code, &d.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get division: %w", err)
	}
	return &d, nil
}

// ShelfRepo raks; la etiqueta es única sin distinguir mayúsculas (índice sobre lower(label)).
type ShelfRepo struct {
	q Querier
}

// NewShelfRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShelfRepository(q Querier) *ShelfRepo {
	return &ShelfRepo{q: q}
}

// List todos los raks.
func (r *ShelfRepo) List(ctx context.Context) ([]*entity.Shelf, error) {
	rows, err := r.q.Query(ctx, `SELECT id, label FROM shelf ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()
	var out []*entity.Shelf
	for rows.Next() {
		var s entity.Shelf
		if err := rows.Scan(&s.ID, &s.Label); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// GetByID obtiene un rak por ID.
func (r *ShelfRepo) GetByID(ctx context.Context, id string) (*entity.Shelf, error) {
	var s entity.Shelf
	err := r.q.QueryRow(ctx, `SELECT id, label FROM shelf WHERE id = $1`, id).Scan(&s.ID, &s.Label)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shelf: %w", err)
	}
	return &s, nil
}

// EnsureByLabel inserta el rak si falta y devuelve el ID existente o nuevo. El ON CONFLICT
// sobre el índice único hace que dos cargas concurrentes converjan en la misma fila.
func (r *ShelfRepo) EnsureByLabel(ctx context.Context, label string) (string, error) {
	label = strings.TrimSpace(label)
	_, err := r.q.Exec(ctx, `
		INSERT INTO shelf (id, label) VALUES ($1, $2)
		ON CONFLICT ((lower(label))) DO NOTHING`, uuid.New().String(), label)
	if err != nil {
		return "", fmt.Errorf("insert shelf %s: %w", label, err)
	}
	var id string
	if err := r.q.QueryRow(ctx, `SELECT id FROM shelf WHERE lower(label) = lower($1)`, label).Scan(&id); err != nil {
		return "", fmt.Errorf("get shelf %s: %w", label, err)
	}
	return id, nil
}
