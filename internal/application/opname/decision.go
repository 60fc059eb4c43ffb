package opname

import (
	"context"
	"strings"
	"time"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// ParseDecision acepta "Approved" o "Rejected" sin distinguir mayúsculas.
func ParseDecision(s string) (entity.AssignmentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return entity.AssignmentApproved, nil
	case "rejected":
		return entity.AssignmentRejected, nil
	}
	return "", domain.Invalid("decisión inválida %q; use Approved o Rejected", s)
}

// Decide Submitted → Approved | Rejected. Approved escribe el conteo en el ledger.
// Cambio de estado, commit y chequeo de completitud del batch van en una sola transacción:
// si falla cualquier paso la asignación sigue Submitted y el ledger queda intacto.
// No se reintenta automáticamente.
func (uc *UseCase) Decide(ctx context.Context, actor entity.Actor, assignmentID string, decision entity.AssignmentStatus) (*dto.AssignmentResponse, error) {
	if err := uc.requireAdmin(actor, "aprobar o rechazar opname"); err != nil {
		return nil, err
	}
	if !decision.Terminal() {
		return nil, domain.Invalid("decisión inválida %q; use Approved o Rejected", decision)
	}

	var (
		out       dto.AssignmentResponse
		completed bool
	)
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := r.Assignment.GetByID(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return domain.NotFound("asignación %s", assignmentID)
		}
		if err := requireStatus(a, entity.AssignmentSubmitted); err != nil {
			return err
		}
		b, err := lockBatch(ctx, r, a.BatchID)
		if err != nil {
			return err
		}
		h, err := uc.strategy(b.WarehouseType)
		if err != nil {
			return err
		}

		now := uc.now()
		ok, err := r.Assignment.MarkDecided(ctx, a.ID, decision, actor.UserID, now)
		if err != nil {
			return err
		}
		if !ok {
			return uc.statusConflict(ctx, r, a.ID, entity.AssignmentSubmitted)
		}
		if decision == entity.AssignmentApproved {
			if err := h.Commit(ctx, r, a); err != nil {
				return err
			}
		}
		a.Status = decision
		a.ApprovedAt = &now
		approver := actor.UserID
		a.ApprovedBy = &approver

		completed, err = completeIfDone(ctx, r, b, now)
		if err != nil {
			return err
		}
		out = withBatch(a, b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("assignment_id", assignmentID).Str("decision", string(decision)).
		Bool("batch_completed", completed).Msg("decisión de opname registrada")
	uc.activity.Record(actor, "Marcó la asignación %s como %s", assignmentID, decision)
	return &out, nil
}

// completeIfDone marca el batch Completed cuando todas sus asignaciones tienen decisión.
// Nunca regresa un batch Completed.
func completeIfDone(ctx context.Context, r repository.Repositories, b *entity.OpnameBatch, now time.Time) (bool, error) {
	if b.Status == entity.BatchCompleted {
		return false, nil
	}
	p, err := r.Assignment.Progress(ctx, b.ID)
	if err != nil {
		return false, err
	}
	if !p.Complete() {
		return false, nil
	}
	if err := r.Batches.UpdateStatus(ctx, b.ID, entity.BatchCompleted, &now); err != nil {
		return false, err
	}
	b.Status = entity.BatchCompleted
	b.CompletedAt = &now
	return true, nil
}
