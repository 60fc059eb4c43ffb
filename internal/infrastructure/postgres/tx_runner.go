package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ciptastok/opname-api/internal/application/ingest"
	"github.com/ciptastok/opname-api/internal/application/opname"
	"github.com/ciptastok/opname-api/internal/domain"
	"github.com/ciptastok/opname-api/internal/domain/repository"
)

// Ensure TxRunner implements opname.TxRunner and ingest.TxRunner.
var _ opname.TxRunner = (*TxRunner)(nil)
var _ ingest.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. acquireTimeout acota la espera por una
// conexión libre; cero la deja atada solo al contexto de la petición.
func NewTxRunner(pool *pgxpool.Pool, acquireTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, acquireTimeout: acquireTimeout}
}

// Run toma una conexión, inicia una transacción, ejecuta fn con repos atados a la tx
// y hace Commit o Rollback. Un deadlock se devuelve envuelto en domain.ErrDeadlock.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func (r *TxRunner) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx := ctx
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}
	conn, err := r.pool.Acquire(acquireCtx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// classify traduce los errores del motor que el dominio distingue.
func classify(err error) error {
	if isDeadlock(err) {
		return fmt.Errorf("%w: %v", domain.ErrDeadlock, err)
	}
	return err
}

// NewRepositories bundle de repositorios sobre q (pool o tx).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Products:   NewProductRepository(q),
		Divisions:  NewDivisionRepository(q),
		Shelves:    NewShelfRepository(q),
		StockWH01:  NewStockCartonRepository(q),
		StockPcs:   NewStockPiecesRepository(q),
		Users:      NewUserRepository(q),
		Batches:    NewBatchRepository(q),
		Assignment: NewAssignmentRepository(q),
		Details:    NewDetailRepository(q),
	}
}
