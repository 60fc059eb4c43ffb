package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var (
	_ repository.StockCartonRepository = (*StockCartonRepo)(nil)
	_ repository.StockPiecesRepository = (*StockPiecesRepo)(nil)
)

// StockCartonRepo ledger WH01 sobre PostgreSQL (usable con pool o tx).
type StockCartonRepo struct {
	q Querier
}

// NewStockCartonRepository construye el adaptador de stock WH01. Pasar pool o tx (Querier).
func NewStockCartonRepository(q Querier) *StockCartonRepo {
	return &StockCartonRepo{q: q}
}

// Get obtiene la fila WH01 de un producto.
func (r *StockCartonRepo) Get(ctx context.Context, productID string) (*entity.StockCarton, error) {
	query := `
		SELECT product_id, cartons, sub_units, pieces, expiry_date, shelf_id, is_active
		FROM stock_wh01 WHERE product_id = $1`
	var s entity.StockCarton
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&s.ProductID, &s.Cartons, &s.SubUnits, &s.Pieces, &s.ExpiryDate, &s.ShelfID, &s.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock wh01: %w", err)
	}
	return &s, nil
}

// DeactivateAll marca inactivo todo el ledger antes de una carga.
func (r *StockCartonRepo) DeactivateAll(ctx context.Context) (int64, error) {
	cmd, err := r.q.Exec(ctx, `UPDATE stock_wh01 SET is_active = FALSE, updated_at = now() WHERE is_active`)
	if err != nil {
		return 0, fmt.Errorf("deactivate stock wh01: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// Upsert inserta o actualiza la fila y la deja activa.
func (r *StockCartonRepo) Upsert(ctx context.Context, s *entity.StockCarton) error {
	query := `
		INSERT INTO stock_wh01 (product_id, cartons, sub_units, pieces, expiry_date, shelf_id, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, now())
		ON CONFLICT (product_id) DO UPDATE SET
			cartons = EXCLUDED.cartons,
			sub_units = EXCLUDED.sub_units,
			pieces = EXCLUDED.pieces,
			expiry_date = EXCLUDED.expiry_date,
			shelf_id = EXCLUDED.shelf_id,
			is_active = TRUE,
			updated_at = now()`
	_, err := r.q.Exec(ctx, query, s.ProductID, s.Cartons, s.SubUnits, s.Pieces, s.ExpiryDate, s.ShelfID)
	if err != nil {
		return fmt.Errorf("upsert stock wh01: %w", err)
	}
	return nil
}

// EnsureInactive placeholder en cero, o desactiva la fila existente sin tocar cantidades.
func (r *StockCartonRepo) EnsureInactive(ctx context.Context, productID string) error {
	query := `
		INSERT INTO stock_wh01 (product_id, is_active) VALUES ($1, FALSE)
		ON CONFLICT (product_id) DO UPDATE SET is_active = FALSE, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID); err != nil {
		return fmt.Errorf("placeholder stock wh01: %w", err)
	}
	return nil
}

// ApplyCount sobrescribe la fila con el conteo aprobado. Sin fila no hace nada.
func (r *StockCartonRepo) ApplyCount(ctx context.Context, s *entity.StockCarton) error {
	query := `
		UPDATE stock_wh01
		SET cartons = $2, sub_units = $3, pieces = $4, expiry_date = $5, shelf_id = $6, updated_at = now()
		WHERE product_id = $1`
	_, err := r.q.Exec(ctx, query, s.ProductID, s.Cartons, s.SubUnits, s.Pieces, s.ExpiryDate, s.ShelfID)
	if err != nil {
		return fmt.Errorf("apply count wh01: %w", err)
	}
	return nil
}

// StockPiecesRepo ledgers WH02/WH03 sobre PostgreSQL.
type StockPiecesRepo struct {
	q Querier
}

// NewStockPiecesRepository construye el adaptador de stock en pieces. Pasar pool o tx (Querier).
func NewStockPiecesRepository(q Querier) *StockPiecesRepo {
	return &StockPiecesRepo{q: q}
}

// Get obtiene la fila del ledger t de un producto.
func (r *StockPiecesRepo) Get(ctx context.Context, t entity.WarehouseType, productID string) (*entity.StockPieces, error) {
	table, err := stockTable(t)
	if err != nil {
		return nil, err
	}
	s := entity.StockPieces{Type: t}
	err = r.q.QueryRow(ctx, `SELECT product_id, total_pieces, is_active FROM `+table+` WHERE product_id = $1`, productID).
		Scan(&s.ProductID, &s.TotalPieces, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return &s, nil
}

// DeactivateAll marca inactivo todo el ledger t.
func (r *StockPiecesRepo) DeactivateAll(ctx context.Context, t entity.WarehouseType) (int64, error) {
	table, err := stockTable(t)
	if err != nil {
		return 0, err
	}
	cmd, err := r.q.Exec(ctx, `UPDATE `+table+` SET is_active = FALSE, updated_at = now() WHERE is_active`)
	if err != nil {
		return 0, fmt.Errorf("deactivate %s: %w", table, err)
	}
	return cmd.RowsAffected(), nil
}

// Upsert inserta o actualiza el total y deja la fila activa.
func (r *StockPiecesRepo) Upsert(ctx context.Context, s *entity.StockPieces) error {
	table, err := stockTable(s.Type)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (product_id, total_pieces, is_active, updated_at)
		VALUES ($1, $2, TRUE, now())
		ON CONFLICT (product_id) DO UPDATE SET total_pieces = EXCLUDED.total_pieces, is_active = TRUE, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, s.ProductID, s.TotalPieces); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// EnsureInactive placeholder en cero, o desactiva la fila existente.
func (r *StockPiecesRepo) EnsureInactive(ctx context.Context, t entity.WarehouseType, productID string) error {
	table, err := stockTable(t)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (product_id, is_active) VALUES ($1, FALSE)
		ON CONFLICT (product_id) DO UPDATE SET is_active = FALSE, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID); err != nil {
		return fmt.Errorf("placeholder %s: %w", table, err)
	}
	return nil
}

// SetTotal sobrescribe total_pieces. Sin fila no hace nada.
func (r *StockPiecesRepo) SetTotal(ctx context.Context, t entity.WarehouseType, productID string, total int) error {
	table, err := stockTable(t)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `UPDATE `+table+` SET total_pieces = $2, updated_at = now() WHERE product_id = $1`, productID, total)
	if err != nil {
		return fmt.Errorf("set total %s: %w", table, err)
	}
	return nil
}

// ListActiveProducts productos activos del ledger t en una división.
func (r *StockPiecesRepo) ListActiveProducts(ctx context.Context, t entity.WarehouseType, divisionID string) ([]*entity.StockProduct, error) {
	table, err := stockTable(t)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT p.id, p.code, p.name, s.total_pieces
		FROM ` + table + ` s JOIN product p ON p.id = s.product_id
		WHERE s.is_active AND p.division_id = $1
		ORDER BY p.name, p.code`
	rows, err := r.q.Query(ctx, query, divisionID)
	if err != nil {
		return nil, fmt.Errorf("list active %s: %w", table, err)
	}
	defer rows.Close()
	var out []*entity.StockProduct
	for rows.Next() {
		var p entity.StockProduct
		if err := rows.Scan(&p.ProductID, &p.Code, &p.Name, &p.TotalPieces); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
