package opname

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// DeleteAssignment borra una asignación Pending o In Progress con su detalle de las tres
// variantes. Cada intento toma el lock de la fila (FOR UPDATE) y revalida el estado bajo
// el lock; un deadlock se reintenta según cfg.DeleteRetry, cualquier otro error se devuelve.
// Si era la última asignación, el batch vuelve a Draft.
func (uc *UseCase) DeleteAssignment(ctx context.Context, actor entity.Actor, assignmentID string) error {
	if err := uc.requireAdmin(actor, "borrar asignaciones"); err != nil {
		return err
	}
	err := uc.cfg.DeleteRetry.Do(ctx, isDeadlock, func(ctx context.Context) error {
		return uc.tx.Run(ctx, func(r repository.Repositories) error {
			return uc.deleteLocked(ctx, r, assignmentID)
		})
	})
	if err != nil {
		return err
	}
	uc.activity.Record(actor, "Borró la asignación %s", assignmentID)
	return nil
}

func (uc *UseCase) deleteLocked(ctx context.Context, r repository.Repositories, assignmentID string) error {
	cur, err := r.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.NotFound("asignación %s", assignmentID)
	}
	// Mismo orden que Decide: batch y luego asignación. batch_id no cambia nunca.
	b, err := lockBatch(ctx, r, cur.BatchID)
	if err != nil {
		return err
	}
	a, err := r.Assignment.GetForUpdate(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a == nil {
		return domain.NotFound("asignación %s", assignmentID)
	}
	if !a.Status.Deletable() {
		return domain.Conflict("la asignación está %s; solo se borran asignaciones %s o %s",
			a.Status, entity.AssignmentPending, entity.AssignmentInProgress)
	}
	if err := r.Details.DeleteAllForAssignment(ctx, a.ID); err != nil {
		return err
	}
	if err := r.Assignment.Delete(ctx, a.ID); err != nil {
		return err
	}

	p, err := r.Assignment.Progress(ctx, b.ID)
	if err != nil {
		return err
	}
	if p.Total == 0 {
		return r.Batches.UpdateStatus(ctx, b.ID, entity.BatchDraft, nil)
	}
	// El resto ya tiene decisión: el batch queda completo.
	_, err = completeIfDone(ctx, r, b, uc.now())
	return err
}
