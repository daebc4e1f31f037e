package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Cafeteria-api/internal/application/expense"
	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
	"github.com/jhoicas/Cafeteria-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner and expense.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)
var _ expense.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos de inventario y costos atados a la tx
// y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	itemRepo repository.InventoryItemRepository,
	movRepo repository.StockMovementRepository,
	costRepo repository.CostRecordRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewInventoryItemRepository(tx), NewStockMovementRepository(tx), NewCostRecordRepository(tx))
	})
}

// RunCosts inicia una transacción solo con el repositorio de registros de costo.
func (r *TxRunner) RunCosts(ctx context.Context, fn func(costRepo repository.CostRecordRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCostRecordRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
