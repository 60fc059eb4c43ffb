package opname

import (
	"context"

	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Un deadlock del motor se
// devuelve envuelto en domain.ErrDeadlock.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.Repositories) error) error
}
