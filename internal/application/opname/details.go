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

// ContainerRowInput fila de koli WH02/WH03.
type ContainerRowInput struct {
	AssignmentID   string
	ProductID      string
	ContainerLabel string
	PhysicalPieces int
}

// ownedOfType carga la asignación del actor y verifica que su batch sea del tipo t.
func ownedOfType(ctx context.Context, r repository.Repositories, actor entity.Actor, assignmentID string, t entity.WarehouseType) (*entity.OpnameAssignment, error) {
	a, err := loadOwned(ctx, r, actor, assignmentID)
	if err != nil {
		return nil, err
	}
	b, err := loadBatch(ctx, r, a.BatchID)
	if err != nil {
		return nil, err
	}
	if b.WarehouseType != t {
		return nil, domain.Invalid("la asignación pertenece a un batch %s, no %s", b.WarehouseType, t)
	}
	return a, nil
}

func piecesType(t entity.WarehouseType) error {
	if t != entity.WarehouseWH02 && t != entity.WarehouseWH03 {
		return domain.Invalid("el conteo por koli solo aplica a WH02 y WH03")
	}
	return nil
}

// ListCartonDetails líneas WH01 de la tarea del usuario, con varianza. Abrirla la reclama.
func (uc *UseCase) ListCartonDetails(ctx context.Context, actor entity.Actor, assignmentID string) ([]dto.CartonDetailResponse, error) {
	var out []dto.CartonDetailResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := ownedOfType(ctx, r, actor, assignmentID, entity.WarehouseWH01)
		if err != nil {
			return err
		}
		if err := uc.claim(ctx, r, a); err != nil {
			return err
		}
		rows, err := r.Details.ListCarton(ctx, a.ID)
		if err != nil {
			return err
		}
		out = toCartonResponses(rows)
		return nil
	})
	return out, err
}

// UpdateCartonDetail registra el conteo físico de una línea WH01. Los campos nil conservan
// su valor; al menos un valor físico es obligatorio y ninguno puede ser negativo.
func (uc *UseCase) UpdateCartonDetail(ctx context.Context, actor entity.Actor, detailID string, in entity.CartonCount) (*dto.CartonDetailResponse, error) {
	if in.PhysicalCartons == nil && in.PhysicalSubUnits == nil && in.PhysicalPieces == nil {
		return nil, domain.Invalid("al menos un valor físico (karton, tengah o pieces) es obligatorio")
	}
	for _, v := range []*int{in.PhysicalCartons, in.PhysicalSubUnits, in.PhysicalPieces} {
		if v != nil && *v < 0 {
			return nil, domain.Invalid("las cantidades físicas no pueden ser negativas")
		}
	}

	var out dto.CartonDetailResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		d, err := r.Details.GetCarton(ctx, detailID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.NotFound("detalle %s", detailID)
		}
		a, err := loadOwned(ctx, r, actor, d.AssignmentID)
		if err != nil {
			return err
		}
		if err := requireStatus(a, entity.AssignmentInProgress); err != nil {
			return err
		}
		if in.ShelfID != nil {
			s, err := r.Shelves.GetByID(ctx, *in.ShelfID)
			if err != nil {
				return err
			}
			if s == nil {
				return domain.Invalid("el rak %s no existe", *in.ShelfID)
			}
		}

		count := entity.CartonCount{
			PhysicalCartons:  pick(in.PhysicalCartons, d.PhysicalCartons),
			PhysicalSubUnits: pick(in.PhysicalSubUnits, d.PhysicalSubUnits),
			PhysicalPieces:   pick(in.PhysicalPieces, d.PhysicalPieces),
			ExpiryDate:       d.ExpiryDate,
			ShelfID:          d.ShelfID,
		}
		if in.ExpiryDate != nil {
			count.ExpiryDate = in.ExpiryDate
		}
		if in.ShelfID != nil {
			count.ShelfID = in.ShelfID
		}
		if err := r.Details.UpdateCartonCount(ctx, d.ID, count, uc.now()); err != nil {
			return err
		}
		updated, err := r.Details.GetCarton(ctx, d.ID)
		if err != nil {
			return err
		}
		out = toCartonResponse(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskProducts productos activos del ledger t en la división de la asignación,
// con lo contado hasta ahora. Abrir la lista reclama la tarea.
func (uc *UseCase) ListTaskProducts(ctx context.Context, actor entity.Actor, t entity.WarehouseType, assignmentID string) ([]dto.ProductCountResponse, error) {
	if err := piecesType(t); err != nil {
		return nil, err
	}
	var out []dto.ProductCountResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := ownedOfType(ctx, r, actor, assignmentID, t)
		if err != nil {
			return err
		}
		if err := uc.claim(ctx, r, a); err != nil {
			return err
		}
		catalog, err := r.StockPcs.ListActiveProducts(ctx, t, a.DivisionID)
		if err != nil {
			return err
		}
		rows, err := r.Details.ListPieces(ctx, t, a.ID)
		if err != nil {
			return err
		}
		out, err = productTotals(ctx, r, t, rows, catalog)
		return err
	})
	return out, err
}

// ListContainerRows filas de koli de un producto dentro de la asignación.
func (uc *UseCase) ListContainerRows(ctx context.Context, actor entity.Actor, t entity.WarehouseType, assignmentID, productID string) ([]dto.PiecesDetailResponse, error) {
	if err := piecesType(t); err != nil {
		return nil, err
	}
	var out []dto.PiecesDetailResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := ownedOfType(ctx, r, actor, assignmentID, t)
		if err != nil {
			return err
		}
		rows, err := r.Details.ListPiecesByProduct(ctx, t, a.ID, productID)
		if err != nil {
			return err
		}
		out = toPiecesResponses(rows)
		return nil
	})
	return out, err
}

// SaveContainerRow inserta o sobrescribe la fila (asignación, producto, koli).
func (uc *UseCase) SaveContainerRow(ctx context.Context, actor entity.Actor, t entity.WarehouseType, in ContainerRowInput) (*dto.PiecesDetailResponse, error) {
	if err := piecesType(t); err != nil {
		return nil, err
	}
	label := strings.TrimSpace(in.ContainerLabel)
	if label == "" || in.ProductID == "" || in.AssignmentID == "" {
		return nil, domain.Invalid("assignment_id, product_id y container_label son obligatorios")
	}
	if in.PhysicalPieces < 0 {
		return nil, domain.Invalid("las cantidades físicas no pueden ser negativas")
	}

	var out dto.PiecesDetailResponse
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		a, err := ownedOfType(ctx, r, actor, in.AssignmentID, t)
		if err != nil {
			return err
		}
		if err := requireStatus(a, entity.AssignmentInProgress); err != nil {
			return err
		}
		p, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NotFound("producto %s", in.ProductID)
		}
		d := &entity.PiecesDetail{
			ID:             uuid.New().String(),
			Type:           t,
			AssignmentID:   a.ID,
			ProductID:      p.ID,
			ProductCode:    p.Code,
			ProductName:    p.Name,
			ContainerLabel: label,
			PhysicalPieces: in.PhysicalPieces,
			CountedAt:      uc.now(),
		}
		if err := r.Details.UpsertPieces(ctx, d); err != nil {
			return err
		}
		out = toPiecesResponse(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteContainerRow borra una fila de koli de la tarea del usuario.
func (uc *UseCase) DeleteContainerRow(ctx context.Context, actor entity.Actor, t entity.WarehouseType, detailID string) error {
	if err := piecesType(t); err != nil {
		return err
	}
	return uc.tx.Run(ctx, func(r repository.Repositories) error {
		d, err := r.Details.GetPieces(ctx, t, detailID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.NotFound("detalle %s", detailID)
		}
		a, err := loadOwned(ctx, r, actor, d.AssignmentID)
		if err != nil {
			return err
		}
		if err := requireStatus(a, entity.AssignmentInProgress); err != nil {
			return err
		}
		return r.Details.DeletePieces(ctx, t, d.ID)
	})
}

func pick(v, fallback *int) *int {
	if v != nil {
		return v
	}
	return fallback
}
