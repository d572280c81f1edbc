package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/rentas-pro/internal/application/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción del pool, con los
// repositorios re-vinculados a la tx. Rollback automático si el callback
// devuelve error o hace panic.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner transaccional sobre el pool inyectado.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling abre la transacción y entrega repos de facturas y contratos
// vinculados a ella, de modo que alta de factura y avance de trackers del
// contrato se confirmen o reviertan juntos.
func (t *TxRunner) RunBilling(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	leaseRepo repository.LeaseRepository,
) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewInvoiceRepository(tx), NewLeaseRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
