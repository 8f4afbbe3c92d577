package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Inventario-erp/internal/application/inventory"
	"github.com/jhoicas/Inventario-erp/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner aplica el resultado de una operación de documento en una sola transacción:
// CAS de estado, bloqueo de filas de stock (FOR UPDATE), movimientos y costo promedio.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewTxRunner construye el runner con el pool. READ COMMITTED basta: el stock se bloquea por fila
// y el documento se protege con el CAS sobre status.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// Run ejecuta fn con repos atados a la tx; cualquier error de fn hace Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	docRepo repository.DocumentRepository,
	movRepo repository.LedgerMovementRepository,
	stockRepo repository.StockRepository,
	costRepo repository.ProductCostRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewDocumentRepository(tx),
		NewLedgerMovementRepository(tx),
		NewStockRepository(tx),
		NewProductCostRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
