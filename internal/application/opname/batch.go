package opname

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// CreateBatchInput entrada para crear un batch.
type CreateBatchInput struct {
	Name          string
	WarehouseType string
	UserIDs       []string
}

// CreateBatch crea el batch In Progress con una asignación por usuario y, para WH01,
// el snapshot del stock activo de la división de cada usuario. Todo en una transacción:
// si un usuario no existe o no tiene división no se persiste nada.
func (uc *UseCase) CreateBatch(ctx context.Context, actor entity.Actor, in CreateBatchInput) (*dto.BatchCreatedResponse, error) {
	if err := uc.requireAdmin(actor, "crear batches de opname"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("el nombre del batch es obligatorio")
	}
	wt, err := entity.ParseWarehouseType(in.WarehouseType)
	if err != nil {
		return nil, domain.Invalid("%s", err.Error())
	}
	userIDs := uniqueIDs(in.UserIDs)
	if len(userIDs) == 0 {
		return nil, domain.Invalid("se requiere al menos un usuario asignado")
	}
	h, err := uc.strategy(wt)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	batch := &entity.OpnameBatch{
		ID:            uuid.New().String(),
		Name:          name,
		WarehouseType: wt,
		CreatedBy:     actor.UserID,
		Status:        entity.BatchInProgress,
		CreatedAt:     now,
	}
	var snapshotRows int64

	err = uc.tx.Run(ctx, func(r repository.Repositories) error {
		users := make([]*entity.User, 0, len(userIDs))
		divisions := map[string]struct{}{}
		for _, id := range userIDs {
			u, err := r.Users.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if u == nil {
				return domain.Invalid("el usuario %s no existe", id)
			}
			if !u.IsActive {
				return domain.Invalid("el usuario %s está inactivo", u.Name)
			}
			if u.DivisionID == nil || *u.DivisionID == "" {
				return domain.Invalid("el usuario %s no tiene división asignada", u.Name)
			}
			if _, seen := divisions[*u.DivisionID]; !seen {
				d, err := r.Divisions.GetByID(ctx, *u.DivisionID)
				if err != nil {
					return err
				}
				if d == nil {
					return domain.Invalid("la división %s del usuario %s no existe", *u.DivisionID, u.Name)
				}
				divisions[d.ID] = struct{}{}
			}
			users = append(users, u)
		}

		if err := r.Batches.Create(ctx, batch); err != nil {
			return err
		}
		for _, u := range users {
			a := &entity.OpnameAssignment{
				ID:         uuid.New().String(),
				BatchID:    batch.ID,
				UserID:     u.ID,
				DivisionID: *u.DivisionID,
				Status:     entity.AssignmentPending,
				AssignedAt: now,
			}
			if err := r.Assignment.Create(ctx, a); err != nil {
				return err
			}
			n, err := h.Snapshot(ctx, r, a)
			if err != nil {
				return err
			}
			snapshotRows += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("batch_id", batch.ID).Str("type", string(wt)).
		Int("assignments", len(userIDs)).Int64("snapshot_rows", snapshotRows).Msg("batch de opname creado")
	uc.activity.Record(actor, "Creó el batch de opname %s (%s) para %d usuarios", batch.Name, wt, len(userIDs))

	return &dto.BatchCreatedResponse{
		Batch:        toBatchResponse(batch, len(userIDs)),
		Assignments:  len(userIDs),
		SnapshotRows: snapshotRows,
	}, nil
}

// uniqueIDs recorta, descarta vacíos y colapsa duplicados preservando el orden.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
