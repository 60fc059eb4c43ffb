package opname

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ciptastok/opname-api/internal/application/activity"
	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
	"github.com/ciptastok/opname-api/pkg/logger"
	"github.com/ciptastok/opname-api/pkg/retry"
)

// Config parámetros del motor de opname.
type Config struct {
	AdminRoleID int
	// DeleteRetry envuelve el borrado transaccional de asignaciones; solo reintenta deadlocks.
	DeleteRetry retry.Policy
}

// DefaultConfig admin = role 1; borrado con 3 intentos y espera lineal de 100ms.
func DefaultConfig() Config {
	return Config{
		AdminRoleID: 1,
		DeleteRetry: retry.Policy{MaxAttempts: 3, Backoff: retry.Linear(100 * time.Millisecond)},
	}
}

// UseCase motor de opname: ciclo de vida de batch/asignación, conciliación y commit al ledger.
type UseCase struct {
	tx         TxRunner
	repos      repository.Repositories // atados al pool, para lecturas fuera de transacción
	activity   *activity.Recorder
	log        *logger.Logger
	cfg        Config
	strategies map[entity.WarehouseType]handler
	now        func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx TxRunner, repos repository.Repositories, rec *activity.Recorder, log *logger.Logger, cfg Config) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("opname")
	if cfg.DeleteRetry.OnRetry == nil {
		cfg.DeleteRetry.OnRetry = func(attempt int, err error) {
			log.Warn().Err(err).Int("attempt", attempt).Msg("deadlock al borrar asignación; reintentando")
		}
	}
	return &UseCase{
		tx:         tx,
		repos:      repos,
		activity:   rec,
		log:        log,
		cfg:        cfg,
		strategies: strategyTable(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (uc *UseCase) SetClock(now func() time.Time) { uc.now = now }

func (uc *UseCase) requireAdmin(actor entity.Actor, action string) error {
	if actor.RoleID != uc.cfg.AdminRoleID {
		return domain.Forbidden("solo el administrador puede %s", action)
	}
	return nil
}

func (uc *UseCase) strategy(t entity.WarehouseType) (handler, error) {
	h, ok := uc.strategies[t]
	if !ok {
		return nil, domain.Invalid("tipo de gudang inválido: %q", t)
	}
	return h, nil
}

// loadOwned carga la asignación y verifica que pertenezca al actor.
// Al no dueño solo se le informa que no tiene acceso, sin exponer el estado.
func loadOwned(ctx context.Context, r repository.Repositories, actor entity.Actor, assignmentID string) (*entity.OpnameAssignment, error) {
	a, err := r.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.NotFound("asignación %s", assignmentID)
	}
	if a.UserID != actor.UserID {
		return nil, domain.Forbidden("la asignación no pertenece al usuario")
	}
	return a, nil
}

// lockBatch toma el lock de la fila del batch. Orden de locks para toda operación que
// reevalúa la completitud: primero el batch, después la asignación.
func lockBatch(ctx context.Context, r repository.Repositories, batchID string) (*entity.OpnameBatch, error) {
	b, err := r.Batches.GetForUpdate(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("batch %s", batchID)
	}
	return b, nil
}

func loadBatch(ctx context.Context, r repository.Repositories, batchID string) (*entity.OpnameBatch, error) {
	b, err := r.Batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("batch %s", batchID)
	}
	return b, nil
}

func requireStatus(a *entity.OpnameAssignment, want entity.AssignmentStatus) error {
	if a.Status != want {
		return domain.Conflict("la asignación está %s; se requiere %s", a.Status, want)
	}
	return nil
}

// claim Pending → In Progress la primera vez que el dueño abre su tarea. Idempotente:
// started_at no se sobrescribe y cualquier otro estado se devuelve tal cual.
func (uc *UseCase) claim(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error {
	if a.Status != entity.AssignmentPending {
		return nil
	}
	now := uc.now()
	ok, err := r.Assignment.MarkStarted(ctx, a.ID, now)
	if err != nil {
		return fmt.Errorf("claim asignación: %w", err)
	}
	if !ok {
		// Otra petición la tomó primero; releer.
		cur, err := r.Assignment.GetByID(ctx, a.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NotFound("asignación %s", a.ID)
		}
		*a = *cur
		return nil
	}
	a.Status = entity.AssignmentInProgress
	if a.StartedAt == nil {
		a.StartedAt = &now
	}
	return nil
}

// isDeadlock clasifica los errores que la política de borrado reintenta.
func isDeadlock(err error) bool {
	return errors.Is(err, domain.ErrDeadlock)
}

func toBatchResponse(b *entity.OpnameBatch, assignments int) dto.BatchResponse {
	return dto.BatchResponse{
		ID:              b.ID,
		Name:            b.Name,
		WarehouseType:   string(b.WarehouseType),
		CreatedBy:       b.CreatedBy,
		CreatorName:     b.CreatorName,
		Status:          string(b.Status),
		CreatedAt:       b.CreatedAt,
		CompletedAt:     b.CompletedAt,
		AssignmentCount: assignments,
	}
}

func toAssignmentResponse(a *entity.OpnameAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          a.ID,
		BatchID:     a.BatchID,
		UserID:      a.UserID,
		DivisionID:  a.DivisionID,
		Status:      string(a.Status),
		AssignedAt:  a.AssignedAt,
		StartedAt:   a.StartedAt,
		SubmittedAt: a.SubmittedAt,
		ApprovedAt:  a.ApprovedAt,
		ApprovedBy:  a.ApprovedBy,
	}
}

func toSummaryResponse(s *entity.AssignmentSummary) dto.AssignmentResponse {
	out := toAssignmentResponse(&s.OpnameAssignment)
	out.BatchName = s.BatchName
	out.WarehouseType = string(s.WarehouseType)
	out.UserName = s.UserName
	out.DivisionCode = s.DivisionCode
	out.DivisionName = s.DivisionName
	return out
}

func withBatch(a *entity.OpnameAssignment, b *entity.OpnameBatch) dto.AssignmentResponse {
	out := toAssignmentResponse(a)
	out.BatchName = b.Name
	out.WarehouseType = string(b.WarehouseType)
	return out
}
