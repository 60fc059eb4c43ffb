package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ciptastok/opname-api/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isDeadlock verifica si el motor abortó la transacción por deadlock (40P01).
func isDeadlock(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40P01" // deadlock_detected
	}
	return false
}

// piecesTables tablas de ledger y de detalle por tipo; los nombres nunca vienen del cliente.
var piecesTables = map[entity.WarehouseType]struct{ stock, detail string }{
	entity.WarehouseWH02: {stock: "stock_wh02", detail: "opname_detail_wh02"},
	entity.WarehouseWH03: {stock: "stock_wh03", detail: "opname_detail_wh03"},
}

func stockTable(t entity.WarehouseType) (string, error) {
	tb, ok := piecesTables[t]
	if !ok {
		return "", fmt.Errorf("ledger de pieces inexistente para %s", t)
	}
	return tb.stock, nil
}

func detailTable(t entity.WarehouseType) (string, error) {
	tb, ok := piecesTables[t]
	if !ok {
		return "", fmt.Errorf("detalle de pieces inexistente para %s", t)
	}
	return tb.detail, nil
}
