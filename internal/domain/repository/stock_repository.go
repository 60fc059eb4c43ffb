package repository

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// StockCartonRepository ledger WH01 (una fila por producto).
type StockCartonRepository interface {
	Get(ctx context.Context, productID string) (*entity.StockCarton, error)
	// DeactivateAll marca inactivas todas las filas activas; devuelve cuántas cambiaron.
	DeactivateAll(ctx context.Context) (int64, error)
	// Upsert escribe cantidades, expiración y rak y deja la fila activa.
	Upsert(ctx context.Context, stock *entity.StockCarton) error
	// EnsureInactive crea la fila en cero si falta; si existe la desactiva sin tocar cantidades.
	EnsureInactive(ctx context.Context, productID string) error
	// ApplyCount sobrescribe karton, tengah, pieces, expiración y rak con el conteo aprobado.
	// No cambia is_active; si la fila no existe no hace nada.
	ApplyCount(ctx context.Context, stock *entity.StockCarton) error
}

// StockPiecesRepository ledgers WH02/WH03; t selecciona la tabla.
type StockPiecesRepository interface {
	Get(ctx context.Context, t entity.WarehouseType, productID string) (*entity.StockPieces, error)
	DeactivateAll(ctx context.Context, t entity.WarehouseType) (int64, error)
	Upsert(ctx context.Context, stock *entity.StockPieces) error
	EnsureInactive(ctx context.Context, t entity.WarehouseType, productID string) error
	// SetTotal sobrescribe total_pieces (commit de una aprobación).
	SetTotal(ctx context.Context, t entity.WarehouseType, productID string, total int) error
	// ListActiveProducts productos activos del ledger dentro de una división.
	ListActiveProducts(ctx context.Context, t entity.WarehouseType, divisionID string) ([]*entity.StockProduct, error)
}
