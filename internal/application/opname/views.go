package opname

import (
	"context"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// ListBatches batches con al menos una asignación (vista admin).
func (uc *UseCase) ListBatches(ctx context.Context, actor entity.Actor) ([]dto.BatchResponse, error) {
	if err := uc.requireAdmin(actor, "ver los batches"); err != nil {
		return nil, err
	}
	batches, err := uc.repos.Batches.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		p, err := uc.repos.Assignment.Progress(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, toBatchResponse(b, p.Total))
	}
	return out, nil
}

// GetBatch cabecera del batch con sus asignaciones.
func (uc *UseCase) GetBatch(ctx context.Context, actor entity.Actor, batchID string) (*dto.BatchDetailResponse, error) {
	if err := uc.requireAdmin(actor, "ver los batches"); err != nil {
		return nil, err
	}
	b, err := loadBatch(ctx, uc.repos, batchID)
	if err != nil {
		return nil, err
	}
	list, err := uc.repos.Assignment.ListByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	assignments := make([]dto.AssignmentResponse, 0, len(list))
	for _, s := range list {
		assignments = append(assignments, toSummaryResponse(s))
	}
	return &dto.BatchDetailResponse{
		Batch:       toBatchResponse(b, len(list)),
		Assignments: assignments,
	}, nil
}

// GetAssignmentDetail asignación con el detalle de su variante y la varianza calculada.
func (uc *UseCase) GetAssignmentDetail(ctx context.Context, actor entity.Actor, assignmentID string) (*dto.AssignmentDetailResponse, error) {
	if err := uc.requireAdmin(actor, "ver el detalle de opname"); err != nil {
		return nil, err
	}
	s, err := uc.repos.Assignment.GetSummary(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.NotFound("asignación %s", assignmentID)
	}
	return uc.assignmentDetail(ctx, uc.repos, s)
}

func (uc *UseCase) assignmentDetail(ctx context.Context, r repository.Repositories, s *entity.AssignmentSummary) (*dto.AssignmentDetailResponse, error) {
	h, err := uc.strategy(s.WarehouseType)
	if err != nil {
		return nil, err
	}
	out := &dto.AssignmentDetailResponse{Assignment: toSummaryResponse(s)}
	if err := h.Details(ctx, r, &s.OpnameAssignment, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveAssignments asignaciones de batches In Progress (monitor del admin).
func (uc *UseCase) ListActiveAssignments(ctx context.Context, actor entity.Actor) ([]dto.AssignmentResponse, error) {
	if err := uc.requireAdmin(actor, "ver las asignaciones activas"); err != nil {
		return nil, err
	}
	list, err := uc.repos.Assignment.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AssignmentResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSummaryResponse(s))
	}
	return out, nil
}

// BatchReport lectura completa de un batch para los renderizadores de reportes:
// {batch_info, assignments[], details_by_assignment}.
func (uc *UseCase) BatchReport(ctx context.Context, actor entity.Actor, batchID string) (*dto.BatchReportResponse, error) {
	if err := uc.requireAdmin(actor, "generar reportes de opname"); err != nil {
		return nil, err
	}
	b, err := loadBatch(ctx, uc.repos, batchID)
	if err != nil {
		return nil, err
	}
	list, err := uc.repos.Assignment.ListByBatch(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	report := &dto.BatchReportResponse{
		BatchInfo:           toBatchResponse(b, len(list)),
		Assignments:         make([]dto.AssignmentResponse, 0, len(list)),
		DetailsByAssignment: make(map[string]dto.AssignmentDetailResponse, len(list)),
	}
	for _, s := range list {
		report.Assignments = append(report.Assignments, toSummaryResponse(s))
		d, err := uc.assignmentDetail(ctx, uc.repos, s)
		if err != nil {
			return nil, err
		}
		report.DetailsByAssignment[s.ID] = *d
	}
	return report, nil
}
