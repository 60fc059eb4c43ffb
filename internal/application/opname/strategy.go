package opname

import (
	"context"
	"fmt"
	"sort"

	"github.com/ciptastok/opname-api/internal/application/dto"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/entity"
	"github.com/ciptastok/opname-api/internal/domain/inventory"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// handler comportamiento de una variante de ledger dentro del pipeline de conciliación.
type handler interface {
	// Snapshot copia la línea base del sistema a la asignación recién creada.
	Snapshot(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) (int64, error)
	// ValidateSubmit devuelve un conflicto si el conteo no está completo.
	ValidateSubmit(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error
	// Commit escribe el conteo aprobado en el ledger.
	Commit(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error
	// Details llena la vista de detalle con la varianza calculada al leer.
	Details(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment, out *dto.AssignmentDetailResponse) error
}

func strategyTable() map[entity.WarehouseType]handler {
	return map[entity.WarehouseType]handler{
		entity.WarehouseWH01: cartonHandler{},
		entity.WarehouseWH02: piecesHandler{t: entity.WarehouseWH02},
		entity.WarehouseWH03: piecesHandler{t: entity.WarehouseWH03},
	}
}

// cartonHandler WH01: snapshot por división, submit exige todas las filas contadas,
// commit sobrescribe solo las filas con fisik karton.
type cartonHandler struct{}

func (cartonHandler) Snapshot(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) (int64, error) {
	n, err := r.Details.SnapshotCarton(ctx, a.ID, a.DivisionID)
	if err != nil {
		return 0, fmt.Errorf("snapshot WH01: %w", err)
	}
	return n, nil
}

func (cartonHandler) ValidateSubmit(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error {
	n, err := r.Details.CountUncounted(ctx, a.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.Conflict("hay %d productos sin fisik karton; complete el conteo antes de enviar", n)
	}
	return nil
}

func (cartonHandler) Commit(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error {
	rows, err := r.Details.ListCarton(ctx, a.ID)
	if err != nil {
		return err
	}
	for _, d := range rows {
		if d.PhysicalCartons == nil {
			continue
		}
		err := r.StockWH01.ApplyCount(ctx, &entity.StockCarton{
			ProductID:  d.ProductID,
			Cartons:    *d.PhysicalCartons,
			SubUnits:   valueOrZero(d.PhysicalSubUnits),
			Pieces:     valueOrZero(d.PhysicalPieces),
			ExpiryDate: d.ExpiryDate,
			ShelfID:    d.ShelfID,
		})
		if err != nil {
			return fmt.Errorf("commit WH01 producto %s: %w", d.ProductCode, err)
		}
	}
	return nil
}

func (cartonHandler) Details(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment, out *dto.AssignmentDetailResponse) error {
	rows, err := r.Details.ListCarton(ctx, a.ID)
	if err != nil {
		return err
	}
	out.CartonRows = toCartonResponses(rows)
	return nil
}

// piecesHandler WH02/WH03: sin snapshot, submit siempre permitido,
// commit suma fisik pcs por producto y sobrescribe total_pieces.
type piecesHandler struct {
	t entity.WarehouseType
}

func (piecesHandler) Snapshot(context.Context, repository.Repositories, *entity.OpnameAssignment) (int64, error) {
	return 0, nil
}

func (piecesHandler) ValidateSubmit(context.Context, repository.Repositories, *entity.OpnameAssignment) error {
	return nil
}

func (h piecesHandler) Commit(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment) error {
	totals, err := r.Details.SumByProduct(ctx, h.t, a.ID)
	if err != nil {
		return err
	}
	// Orden estable de escritura: mismo orden de locks entre aprobaciones concurrentes.
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := r.StockPcs.SetTotal(ctx, h.t, id, totals[id]); err != nil {
			return fmt.Errorf("commit %s producto %s: %w", h.t, id, err)
		}
	}
	return nil
}

func (h piecesHandler) Details(ctx context.Context, r repository.Repositories, a *entity.OpnameAssignment, out *dto.AssignmentDetailResponse) error {
	rows, err := r.Details.ListPieces(ctx, h.t, a.ID)
	if err != nil {
		return err
	}
	out.PiecesRows = toPiecesResponses(rows)
	totals, err := productTotals(ctx, r, h.t, rows, nil)
	if err != nil {
		return err
	}
	out.ProductTotals = totals
	return nil
}

// productTotals agrupa las filas de koli por producto y las compara con el ledger.
// catalog (opcional) agrega productos sin filas, que quedan sin varianza.
func productTotals(ctx context.Context, r repository.Repositories, t entity.WarehouseType, rows []*entity.PiecesDetail, catalog []*entity.StockProduct) ([]dto.ProductCountResponse, error) {
	byProduct := make(map[string]*dto.ProductCountResponse)
	order := make([]string, 0)
	for _, p := range catalog {
		byProduct[p.ProductID] = &dto.ProductCountResponse{
			ProductID:    p.ProductID,
			ProductCode:  p.Code,
			ProductName:  p.Name,
			SystemPieces: p.TotalPieces,
		}
		order = append(order, p.ProductID)
	}
	for _, d := range rows {
		pc, ok := byProduct[d.ProductID]
		if !ok {
			stock, err := r.StockPcs.Get(ctx, t, d.ProductID)
			if err != nil {
				return nil, err
			}
			pc = &dto.ProductCountResponse{ProductID: d.ProductID, ProductCode: d.ProductCode, ProductName: d.ProductName}
			if stock != nil {
				pc.SystemPieces = stock.TotalPieces
			}
			byProduct[d.ProductID] = pc
			order = append(order, d.ProductID)
		}
		pc.CountedPieces += d.PhysicalPieces
		pc.Rows++
	}
	out := make([]dto.ProductCountResponse, 0, len(order))
	for _, id := range order {
		pc := byProduct[id]
		pc.Variance = string(inventory.PiecesVariance(pc.SystemPieces, pc.CountedPieces, pc.Rows))
		out = append(out, *pc)
	}
	return out, nil
}

func toCartonResponses(rows []*entity.CartonDetail) []dto.CartonDetailResponse {
	out := make([]dto.CartonDetailResponse, 0, len(rows))
	for _, d := range rows {
		out = append(out, toCartonResponse(d))
	}
	return out
}

func toCartonResponse(d *entity.CartonDetail) dto.CartonDetailResponse {
	return dto.CartonDetailResponse{
		ID:               d.ID,
		ProductID:        d.ProductID,
		ProductCode:      d.ProductCode,
		ProductName:      d.ProductName,
		SystemCartons:    d.SystemCartons,
		SystemSubUnits:   d.SystemSubUnits,
		SystemPieces:     d.SystemPieces,
		PhysicalCartons:  d.PhysicalCartons,
		PhysicalSubUnits: d.PhysicalSubUnits,
		PhysicalPieces:   d.PhysicalPieces,
		ExpiryDate:       d.ExpiryDate,
		ShelfID:          d.ShelfID,
		ShelfLabel:       d.ShelfLabel,
		Variance:         string(inventory.CartonVariance(d)),
		CountedAt:        d.CountedAt,
	}
}

func toPiecesResponses(rows []*entity.PiecesDetail) []dto.PiecesDetailResponse {
	out := make([]dto.PiecesDetailResponse, 0, len(rows))
	for _, d := range rows {
		out = append(out, toPiecesResponse(d))
	}
	return out
}

func toPiecesResponse(d *entity.PiecesDetail) dto.PiecesDetailResponse {
	return dto.PiecesDetailResponse{
		ID:             d.ID,
		ProductID:      d.ProductID,
		ProductCode:    d.ProductCode,
		ProductName:    d.ProductName,
		ContainerLabel: d.ContainerLabel,
		PhysicalPieces: d.PhysicalPieces,
		CountedAt:      d.CountedAt,
	}
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
