package repository

import (
	"context"
	"time"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para OpnameBatch (DIP).
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.OpnameBatch) error
	GetByID(ctx context.Context, id string) (*entity.OpnameBatch, error)
	// GetForUpdate lee el batch bloqueando su fila hasta el fin de la transacción.
	// Serializa las decisiones y borrados que reevalúan la completitud del batch.
	GetForUpdate(ctx context.Context, id string) (*entity.OpnameBatch, error)
	// List batches con al menos una asignación, más recientes primero.
	List(ctx context.Context) ([]*entity.OpnameBatch, error)
	// UpdateStatus fija el estado; completedAt solo se persiste al pasar a Completed.
	UpdateStatus(ctx context.Context, id string, status entity.BatchStatus, completedAt *time.Time) error
}

// AssignmentRepository persistencia de asignaciones. Las transiciones Mark* son
// condicionales: devuelven false si la fila no estaba en el estado esperado.
type AssignmentRepository interface {
	Create(ctx context.Context, a *entity.OpnameAssignment) error
	GetByID(ctx context.Context, id string) (*entity.OpnameAssignment, error)
	// GetForUpdate lee la asignación tomando un lock exclusivo de fila.
	GetForUpdate(ctx context.Context, id string) (*entity.OpnameAssignment, error)
	// GetSummary la asignación con usuario, división y batch.
	GetSummary(ctx context.Context, id string) (*entity.AssignmentSummary, error)
	ListByBatch(ctx context.Context, batchID string) ([]*entity.AssignmentSummary, error)
	// FindActiveForUser la asignación Pending/In Progress más antigua del usuario.
	FindActiveForUser(ctx context.Context, userID string) (*entity.OpnameAssignment, error)
	// ListActive asignaciones de batches In Progress.
	ListActive(ctx context.Context) ([]*entity.AssignmentSummary, error)

	MarkStarted(ctx context.Context, id string, at time.Time) (bool, error)
	MarkSubmitted(ctx context.Context, id string, at time.Time) (bool, error)
	MarkDecided(ctx context.Context, id string, status entity.AssignmentStatus, by string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error

	Progress(ctx context.Context, batchID string) (entity.BatchProgress, error)
}

// DetailRepository filas de detalle de las tres variantes.
type DetailRepository interface {
	// SnapshotCarton copia el stock WH01 activo de la división a la asignación; devuelve filas copiadas.
	SnapshotCarton(ctx context.Context, assignmentID, divisionID string) (int64, error)
	ListCarton(ctx context.Context, assignmentID string) ([]*entity.CartonDetail, error)
	GetCarton(ctx context.Context, id string) (*entity.CartonDetail, error)
	UpdateCartonCount(ctx context.Context, id string, count entity.CartonCount, at time.Time) error
	// CountUncounted filas WH01 con fisik karton nulo.
	CountUncounted(ctx context.Context, assignmentID string) (int, error)

	// UpsertPieces inserta o sobrescribe por (asignación, producto, koli); d.ID queda con el ID persistido.
	UpsertPieces(ctx context.Context, d *entity.PiecesDetail) error
	ListPieces(ctx context.Context, t entity.WarehouseType, assignmentID string) ([]*entity.PiecesDetail, error)
	ListPiecesByProduct(ctx context.Context, t entity.WarehouseType, assignmentID, productID string) ([]*entity.PiecesDetail, error)
	GetPieces(ctx context.Context, t entity.WarehouseType, id string) (*entity.PiecesDetail, error)
	DeletePieces(ctx context.Context, t entity.WarehouseType, id string) error
	// SumByProduct suma physical pieces por producto; productos sin filas no aparecen.
	SumByProduct(ctx context.Context, t entity.WarehouseType, assignmentID string) (map[string]int, error)

	// DeleteAllForAssignment borra el detalle de las tres tablas.
	DeleteAllForAssignment(ctx context.Context, assignmentID string) error
}
