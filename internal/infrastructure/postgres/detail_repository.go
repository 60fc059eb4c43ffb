package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var _ repository.DetailRepository = (*DetailRepo)(nil)

// DetailRepo filas de detalle de opname (WH01 y las dos tablas por koli).
type DetailRepo struct {
	q Querier
}

// NewDetailRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDetailRepository(q Querier) *DetailRepo {
	return &DetailRepo{q: q}
}

// SnapshotCarton copia el stock WH01 activo de la división; expiración y rak arrancan con el valor del sistema.
func (r *DetailRepo) SnapshotCarton(ctx context.Context, assignmentID, divisionID string) (int64, error) {
	query := `
		INSERT INTO opname_detail_wh01 (
			id, assignment_id, product_id,
			system_cartons, system_sub_units, system_pieces, system_expiry, system_shelf_id,
			expiry_date, shelf_id)
		SELECT gen_random_uuid(), $1, s.product_id,
			s.cartons, s.sub_units, s.pieces, s.expiry_date, s.shelf_id,
			s.expiry_date, s.shelf_id
		FROM stock_wh01 s JOIN product p ON p.id = s.product_id
		WHERE s.is_active AND p.division_id = $2`
	cmd, err := r.q.Exec(ctx, query, assignmentID, divisionID)
	if err != nil {
		return 0, fmt.Errorf("snapshot wh01: %w", err)
	}
	return cmd.RowsAffected(), nil
}

const cartonSelect = `
	SELECT d.id, d.assignment_id, d.product_id, p.code, p.name,
		d.system_cartons, d.system_sub_units, d.system_pieces, d.system_expiry, d.system_shelf_id,
		d.physical_cartons, d.physical_sub_units, d.physical_pieces,
		d.expiry_date, d.shelf_id, COALESCE(sh.label, ''), d.counted_at
	FROM opname_detail_wh01 d
	JOIN product p ON p.id = d.product_id
	LEFT JOIN shelf sh ON sh.id = d.shelf_id`

func scanCarton(row pgx.Row) (*entity.CartonDetail, error) {
	var d entity.CartonDetail
	err := row.Scan(
		&d.ID, &d.AssignmentID, &d.ProductID, &d.ProductCode, &d.ProductName,
		&d.SystemCartons, &d.SystemSubUnits, &d.SystemPieces, &d.SystemExpiry, &d.SystemShelfID,
		&d.PhysicalCartons, &d.PhysicalSubUnits, &d.PhysicalPieces,
		&d.ExpiryDate, &d.ShelfID, &d.ShelfLabel, &d.CountedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListCarton líneas WH01 de la asignación ordenadas por producto.
func (r *DetailRepo) ListCarton(ctx context.Context, assignmentID string) ([]*entity.CartonDetail, error) {
	rows, err := r.q.Query(ctx, cartonSelect+` WHERE d.assignment_id = $1 ORDER BY p.name, p.code`, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list detail wh01: %w", err)
	}
	defer rows.Close()
	var out []*entity.CartonDetail
	for rows.Next() {
		d, err := scanCarton(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetCarton una línea WH01.
func (r *DetailRepo) GetCarton(ctx context.Context, id string) (*entity.CartonDetail, error) {
	d, err := scanCarton(r.q.QueryRow(ctx, cartonSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get detail wh01: %w", err)
	}
	return d, nil
}

// UpdateCartonCount escribe el conteo físico ya combinado con los valores previos.
func (r *DetailRepo) UpdateCartonCount(ctx context.Context, id string, c entity.CartonCount, at time.Time) error {
	query := `
		UPDATE opname_detail_wh01
		SET physical_cartons = $2, physical_sub_units = $3, physical_pieces = $4,
			expiry_date = $5, shelf_id = $6, counted_at = $7
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, id, c.PhysicalCartons, c.PhysicalSubUnits, c.PhysicalPieces, c.ExpiryDate, c.ShelfID, at)
	if err != nil {
		return fmt.Errorf("update detail wh01: %w", err)
	}
	return nil
}

// CountUncounted líneas sin fisik karton.
func (r *DetailRepo) CountUncounted(ctx context.Context, assignmentID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM opname_detail_wh01 WHERE assignment_id = $1 AND physical_cartons IS NULL`,
		assignmentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count uncounted wh01: %w", err)
	}
	return n, nil
}

// UpsertPieces inserta o sobrescribe la fila (asignación, producto, koli).
func (r *DetailRepo) UpsertPieces(ctx context.Context, d *entity.PiecesDetail) error {
	table, err := detailTable(d.Type)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO ` + table + ` (id, assignment_id, product_id, container_label, physical_pieces, counted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (assignment_id, product_id, container_label) DO UPDATE SET
			physical_pieces = EXCLUDED.physical_pieces,
			counted_at = EXCLUDED.counted_at
		RETURNING id`
	err = r.q.QueryRow(ctx, query, d.ID, d.AssignmentID, d.ProductID, d.ContainerLabel, d.PhysicalPieces, d.CountedAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func piecesSelect(table string) string {
	return `
		SELECT d.id, d.assignment_id, d.product_id, p.code, p.name, d.container_label, d.physical_pieces, d.counted_at
		FROM ` + table + ` d JOIN product p ON p.id = d.product_id`
}

func scanPieces(row pgx.Row, t entity.WarehouseType) (*entity.PiecesDetail, error) {
	d := entity.PiecesDetail{Type: t}
	err := row.Scan(&d.ID, &d.AssignmentID, &d.ProductID, &d.ProductCode, &d.ProductName, &d.ContainerLabel, &d.PhysicalPieces, &d.CountedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DetailRepo) listPieces(ctx context.Context, t entity.WarehouseType, where string, args ...any) ([]*entity.PiecesDetail, error) {
	table, err := detailTable(t)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, piecesSelect(table)+where+` ORDER BY p.name, d.container_label`, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()
	var out []*entity.PiecesDetail
	for rows.Next() {
		d, err := scanPieces(rows, t)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListPieces filas de koli de la asignación.
func (r *DetailRepo) ListPieces(ctx context.Context, t entity.WarehouseType, assignmentID string) ([]*entity.PiecesDetail, error) {
	return r.listPieces(ctx, t, ` WHERE d.assignment_id = $1`, assignmentID)
}

// ListPiecesByProduct filas de koli de un producto dentro de la asignación.
func (r *DetailRepo) ListPiecesByProduct(ctx context.Context, t entity.WarehouseType, assignmentID, productID string) ([]*entity.PiecesDetail, error) {
	return r.listPieces(ctx, t, ` WHERE d.assignment_id = $1 AND d.product_id = $2`, assignmentID, productID)
}

// GetPieces una fila de koli.
func (r *DetailRepo) GetPieces(ctx context.Context, t entity.WarehouseType, id string) (*entity.PiecesDetail, error) {
	table, err := detailTable(t)
	if err != nil {
		return nil, err
	}
	d, err := scanPieces(r.q.QueryRow(ctx, piecesSelect(table)+` WHERE d.id = $1`, id), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	return d, nil
}

// DeletePieces borra una fila de koli.
func (r *DetailRepo) DeletePieces(ctx context.Context, t entity.WarehouseType, id string) error {
	table, err := detailTable(t)
	if err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// SumByProduct suma de fisik pcs por producto.
func (r *DetailRepo) SumByProduct(ctx context.Context, t entity.WarehouseType, assignmentID string) (map[string]int, error) {
	table, err := detailTable(t)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx,
		`SELECT product_id, SUM(physical_pieces) FROM `+table+` WHERE assignment_id = $1 GROUP BY product_id`,
		assignmentID)
	if err != nil {
		return nil, fmt.Errorf("sum %s: %w", table, err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			productID string
			total     int64
		)
		if err := rows.Scan(&productID, &total); err != nil {
			return nil, err
		}
		out[productID] = int(total)
	}
	return out, rows.Err()
}

// DeleteAllForAssignment borra el detalle de las tres tablas.
func (r *DetailRepo) DeleteAllForAssignment(ctx context.Context, assignmentID string) error {
	for _, table := range []string{"opname_detail_wh01", piecesTables[entity.WarehouseWH02].detail, piecesTables[entity.WarehouseWH03].detail} {
		if _, err := r.q.Exec(ctx, `DELETE FROM `+table+` WHERE assignment_id = $1`, assignmentID); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
