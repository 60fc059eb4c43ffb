package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, code, name, barcode, division_id, sub_unit_factor, carton_factor, unit_price`

// UpsertByCode inserta el producto o actualiza sus campos maestros si el código ya existe.
// Un precio vacío en la carga conserva el precio guardado.
func (r *ProductRepo) UpsertByCode(ctx context.Context, p *entity.Product) (string, error) {
	query := `
		INSERT INTO product (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			barcode = EXCLUDED.barcode,
			division_id = EXCLUDED.division_id,
			sub_unit_factor = EXCLUDED.sub_unit_factor,
			carton_factor = EXCLUDED.carton_factor,
			unit_price = COALESCE(EXCLUDED.unit_price, product.unit_price)
		RETURNING id`
	var id string
	err := r.q.QueryRow(ctx, query,
		uuid.New().String(), p.Code, p.Name, p.Barcode, p.DivisionID,
		p.SubUnitFactor, p.CartonFactor, p.UnitPrice,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert product %s: %w", p.Code, err)
	}
	return id, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM product WHERE id = $1`, id)
}

// GetByCode obtiene un producto por pcode.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM product WHERE code = $1`, code)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Code, &p.Name, &p.Barcode, &p.DivisionID, &p.SubUnitFactor, &p.CartonFactor, &p.UnitPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}
