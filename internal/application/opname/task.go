package opname

import (
	"context"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// MyTask devuelve la tarea activa más antigua del usuario (Pending o In Progress) y la reclama.
func (uc *UseCase) MyTask(ctx context.Context, actor entity.Actor) (*dto.AssignmentResponse, error) {
	var out dto.AssignmentResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := r.Assignment.FindActiveForUser(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.NotFound("no hay tareas de opname activas")
		}
		b, err := loadBatch(ctx, r, a.BatchID)
		if err != nil {
			return err
		}
		if err := uc.claim(ctx, r, a); err != nil {
			return err
		}
		out = withBatch(a, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClaimTask Pending → In Progress registrando started_at una sola vez. Solo el dueño.
func (uc *UseCase) ClaimTask(ctx context.Context, actor entity.Actor, assignmentID string) (*dto.AssignmentResponse, error) {
	var out dto.AssignmentResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := loadOwned(ctx, r, actor, assignmentID)
		if err != nil {
			return err
		}
		b, err := loadBatch(ctx, r, a.BatchID)
		if err != nil {
			return err
		}
		if err := uc.claim(ctx, r, a); err != nil {
			return err
		}
		out = withBatch(a, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit In Progress → Submitted. WH01 exige todas las filas con fisik karton;
// WH02/WH03 aceptan cero filas. La actualización condicional de estado hace de gate
// optimista frente a envíos o decisiones concurrentes.
func (uc *UseCase) Submit(ctx context.Context, actor entity.Actor, assignmentID string) (*dto.AssignmentResponse, error) {
	var out dto.AssignmentResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := loadOwned(ctx, r, actor, assignmentID)
		if err != nil {
			return err
		}
		if err := requireStatus(a, entity.AssignmentInProgress); err != nil {
			return err
		}
		b, err := loadBatch(ctx, r, a.BatchID)
		if err != nil {
			return err
		}
		h, err := uc.strategy(b.WarehouseType)
		if err != nil {
			return err
		}
		if err := h.ValidateSubmit(ctx, r, a); err != nil {
			return err
		}
		now := uc.now()
		ok, err := r.Assignment.MarkSubmitted(ctx, a.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return uc.statusConflict(ctx, r, a.ID, entity.AssignmentInProgress)
		}
		a.Status = entity.AssignmentSubmitted
		a.SubmittedAt = &now
		out = withBatch(a, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.activity.Record(actor, "Envió la asignación %s", assignmentID)
	return &out, nil
}

// statusConflict relee la asignación tras perder la carrera del update condicional.
func (uc *UseCase) statusConflict(ctx context.Context, r repository.Repositories, id string, want entity.AssignmentStatus) error {
	cur, err := r.Assignment.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.NotFound("asignación %s", id)
	}
	return domain.Conflict("la asignación está %s; se requiere %s", cur.Status, want)
}
