package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

var (
	_ repository.BatchRepository      = (*BatchRepo)(nil)
	_ repository.AssignmentRepository = (*AssignmentRepo)(nil)
)

// BatchRepo batches de opname sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchSelect = `
	SELECT b.id, b.name, b.warehouse_type, b.created_by, COALESCE(u.name, ''), b.status, b.created_at, b.completed_at
	FROM opname_batch b LEFT JOIN users u ON u.id = b.created_by`

func scanBatch(row pgx.Row) (*entity.OpnameBatch, error) {
	var (
		b      entity.OpnameBatch
		wt     string
		status string
	)
	if err := row.Scan(&b.ID, &b.Name, &wt, &b.CreatedBy, &b.CreatorName, &status, &b.CreatedAt, &b.CompletedAt); err != nil {
		return nil, err
	}
	b.WarehouseType = entity.WarehouseType(wt)
	b.Status = entity.BatchStatus(status)
	return &b, nil
}

// Create persiste un batch.
func (r *BatchRepo) Create(ctx context.Context, b *entity.OpnameBatch) error {
	query := `
		INSERT INTO opname_batch (id, name, warehouse_type, created_by, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, b.ID, b.Name, string(b.WarehouseType), b.CreatedBy, string(b.Status), b.CreatedAt, b.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert opname batch: %w", err)
	}
	return nil
}

// GetByID obtiene un batch por ID con el nombre de su creador.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.OpnameBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, batchSelect+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opname batch: %w", err)
	}
	return b, nil
}

// GetForUpdate como GetByID pero con SELECT ... FOR UPDATE sobre la fila del batch.
func (r *BatchRepo) GetForUpdate(ctx context.Context, id string) (*entity.OpnameBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, batchSelect+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock opname batch: %w", err)
	}
	return b, nil
}

// List batches con al menos una asignación, más recientes primero.
func (r *BatchRepo) List(ctx context.Context) ([]*entity.OpnameBatch, error) {
	query := batchSelect + `
		WHERE EXISTS (SELECT 1 FROM opname_assignment a WHERE a.batch_id = b.id)
		ORDER BY b.created_at DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list opname batches: %w", err)
	}
	defer rows.Close()
	var out []*entity.OpnameBatch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus fija el estado; completed_at solo queda con valor en Completed.
func (r *BatchRepo) UpdateStatus(ctx context.Context, id string, status entity.BatchStatus, completedAt *time.Time) error {
	if status != entity.BatchCompleted {
		completedAt = nil
	}
	cmd, err := r.q.Exec(ctx, `UPDATE opname_batch SET status = $2, completed_at = $3 WHERE id = $1`, id, string(status), completedAt)
	if err != nil {
		return fmt.Errorf("update opname batch status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("batch %s", id)
	}
	return nil
}

// AssignmentRepo asignaciones de opname sobre PostgreSQL.
type AssignmentRepo struct {
	q Querier
}

// NewAssignmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAssignmentRepository(q Querier) *AssignmentRepo {
	return &AssignmentRepo{q: q}
}

const assignmentColumns = `a.id, a.batch_id, a.user_id, a.division_id, a.status, a.assigned_at, a.started_at, a.submitted_at, a.approved_at, a.approved_by`

func assignmentDest(a *entity.OpnameAssignment, status *string) []any {
	return []any{&a.ID, &a.BatchID, &a.UserID, &a.DivisionID, status, &a.AssignedAt, &a.StartedAt, &a.SubmittedAt, &a.ApprovedAt, &a.ApprovedBy}
}

func (r *AssignmentRepo) getOne(ctx context.Context, query, id string) (*entity.OpnameAssignment, error) {
	var (
		a      entity.OpnameAssignment
		status string
	)
	if err := r.q.QueryRow(ctx, query, id).Scan(assignmentDest(&a, &status)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opname assignment: %w", err)
	}
	a.Status = entity.AssignmentStatus(status)
	return &a, nil
}

const summarySelect = `
	SELECT ` + assignmentColumns + `, u.name, d.code, d.name, b.name, b.warehouse_type
	FROM opname_assignment a
	JOIN users u ON u.id = a.user_id
	JOIN division d ON d.id = a.division_id
	JOIN opname_batch b ON b.id = a.batch_id`

func scanSummary(row pgx.Row) (*entity.AssignmentSummary, error) {
	var (
		s      entity.AssignmentSummary
		status string
		wt     string
	)
	dest := append(assignmentDest(&s.OpnameAssignment, &status), &s.UserName, &s.DivisionCode, &s.DivisionName, &s.BatchName, &wt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Status = entity.AssignmentStatus(status)
	s.WarehouseType = entity.WarehouseType(wt)
	return &s, nil
}

func (r *AssignmentRepo) listSummaries(ctx context.Context, query string, args ...any) ([]*entity.AssignmentSummary, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opname assignments: %w", err)
	}
	defer rows.Close()
	var out []*entity.AssignmentSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create persiste una asignación. (batch, usuario) repetido devuelve domain.ErrDuplicate.
func (r *AssignmentRepo) Create(ctx context.Context, a *entity.OpnameAssignment) error {
	query := `
		INSERT INTO opname_assignment (id, batch_id, user_id, division_id, status, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, a.ID, a.BatchID, a.UserID, a.DivisionID, string(a.Status), a.AssignedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert opname assignment: %w", err)
	}
	return nil
}

// GetByID obtiene una asignación por ID.
func (r *AssignmentRepo) GetByID(ctx context.Context, id string) (*entity.OpnameAssignment, error) {
	return r.getOne(ctx, `SELECT `+assignmentColumns+` FROM opname_assignment a WHERE a.id = $1`, id)
}

// GetForUpdate obtiene la asignación y bloquea la fila (SELECT FOR UPDATE).
func (r *AssignmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.OpnameAssignment, error) {
	return r.getOne(ctx, `SELECT `+assignmentColumns+` FROM opname_assignment a WHERE a.id = $1 FOR UPDATE`, id)
}

// GetSummary la asignación con usuario, división y batch.
func (r *AssignmentRepo) GetSummary(ctx context.Context, id string) (*entity.AssignmentSummary, error) {
	s, err := scanSummary(r.q.QueryRow(ctx, summarySelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opname assignment summary: %w", err)
	}
	return s, nil
}

// ListByBatch asignaciones de un batch ordenadas por usuario.
func (r *AssignmentRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.AssignmentSummary, error) {
	return r.listSummaries(ctx, summarySelect+` WHERE a.batch_id = $1 ORDER BY u.name, a.id`, batchID)
}

// FindActiveForUser la asignación Pending/In Progress más antigua del usuario.
func (r *AssignmentRepo) FindActiveForUser(ctx context.Context, userID string) (*entity.OpnameAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + ` FROM opname_assignment a
		WHERE a.user_id = $1 AND a.status IN ('Pending', 'In Progress')
		ORDER BY a.assigned_at, a.id
		LIMIT 1`
	return r.getOne(ctx, query, userID)
}

// ListActive asignaciones de batches In Progress.
func (r *AssignmentRepo) ListActive(ctx context.Context) ([]*entity.AssignmentSummary, error) {
	return r.listSummaries(ctx, summarySelect+` WHERE b.status = 'In Progress' ORDER BY b.created_at DESC, u.name`)
}

// transition ejecuta un UPDATE condicional y reporta si la fila cambió.
func (r *AssignmentRepo) transition(ctx context.Context, op, query string, args ...any) (bool, error) {
	cmd, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return cmd.RowsAffected() == 1, nil
}

// MarkStarted Pending → In Progress; started_at se fija una sola vez.
func (r *AssignmentRepo) MarkStarted(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, "mark started", `
		UPDATE opname_assignment SET status = 'In Progress', started_at = COALESCE(started_at, $2)
		WHERE id = $1 AND status = 'Pending'`, id, at)
}

// MarkSubmitted In Progress → Submitted.
func (r *AssignmentRepo) MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.transition(ctx, "mark submitted", `
		UPDATE opname_assignment SET status = 'Submitted', submitted_at = $2
		WHERE id = $1 AND status = 'In Progress'`, id, at)
}

// MarkDecided Submitted → Approved | Rejected.
func (r *AssignmentRepo) MarkDecided(ctx context.Context, id string, status entity.AssignmentStatus, by string, at time.Time) (bool, error) {
	return r.transition(ctx, "mark decided", `
		UPDATE opname_assignment SET status = $2, approved_by = $3, approved_at = $4
		WHERE id = $1 AND status = 'Submitted'`, id, string(status), by, at)
}

// Delete borra la asignación.
func (r *AssignmentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM opname_assignment WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete opname assignment: %w", err)
	}
	return nil
}

// Progress total de asignaciones del batch y cuántas tienen decisión.
func (r *AssignmentRepo) Progress(ctx context.Context, batchID string) (entity.BatchProgress, error) {
	var p entity.BatchProgress
	err := r.q.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE status IN ('Approved', 'Rejected'))
		FROM opname_assignment WHERE batch_id = $1`, batchID).Scan(&p.Total, &p.Terminal)
	if err != nil {
		return p, fmt.Errorf("opname batch progress: %w", err)
	}
	return p, nil
}
