package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la factura completa.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO invoices
			(id, lease_id, owner_id, tenant_account_id, invoice_number,
			 period_start, period_end, subtotal, late_fee, adjustments, total,
			 currency_code, amount_paid, due_date, status, issued_at, paid_at,
			 original_amount, original_currency, exchange_rate_used,
			 withholding_iibb, withholding_iva, withholding_ganancias, withholdings_total,
			 adjustment_applied, adjustment_index_type, adjustment_value,
			 cae, cae_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29,
		        $30, $31)`
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.LeaseID, inv.OwnerID, inv.TenantAccountID, inv.InvoiceNumber,
		inv.PeriodStart, inv.PeriodEnd, inv.Subtotal, inv.LateFee, inv.Adjustments, inv.Total,
		inv.CurrencyCode, inv.AmountPaid, inv.DueDate, inv.Status, inv.IssuedAt, inv.PaidAt,
		inv.OriginalAmount, nullIfEmpty(inv.OriginalCurrency), inv.ExchangeRateUsed,
		inv.WithholdingIIBB, inv.WithholdingIVA, inv.WithholdingGanancias, inv.WithholdingsTotal,
		inv.AdjustmentApplied, nullIfEmpty(inv.AdjustmentIndexType), inv.AdjustmentValue,
		nullIfEmpty(inv.CAE), inv.CAEExpiry, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number already exists: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID obtiene una factura por ID. Sin fila devuelve nil.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := selectInvoice + ` WHERE id = $1 AND deleted_at IS NULL`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// NextSequence próximo secuencial para el propietario en el año dado
// (cantidad de facturas existentes + 1).
func (r *InvoiceRepo) NextSequence(ctx context.Context, ownerID string, year int) (int64, error) {
	const query = `
		SELECT COUNT(*) + 1
		FROM invoices
		WHERE owner_id = $1
		  AND EXTRACT(YEAR FROM period_start) = $2
		  AND deleted_at IS NULL`
	var seq int64
	if err := r.q.QueryRow(ctx, query, ownerID, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next invoice sequence: %w", err)
	}
	return seq, nil
}

// FindDueSoon facturas pendientes con vencimiento dentro de [from, to].
func (r *InvoiceRepo) FindDueSoon(ctx context.Context, from, to time.Time) ([]*entity.Invoice, error) {
	query := selectInvoice + `
		WHERE status IN ('issued', 'partially_paid')
		  AND due_date BETWEEN $1 AND $2
		  AND deleted_at IS NULL
		ORDER BY due_date`
	return r.list(ctx, query, from, to)
}

// FindOverdue facturas pendientes vencidas estrictamente antes de asOf.
func (r *InvoiceRepo) FindOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	query := selectInvoice + `
		WHERE status IN ('issued', 'partially_paid')
		  AND due_date < $1
		  AND deleted_at IS NULL
		ORDER BY due_date`
	return r.list(ctx, query, asOf)
}

// MarkOverdue transiciona todas las pendientes vencidas en un solo UPDATE con
// guarda de estado: facturas ya overdue o pagas quedan intactas y el re-run
// es idempotente. Devuelve solo las filas transicionadas en esta corrida
// (RETURNING), que son las que reciben aviso de mora.
func (r *InvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	const query = `
		UPDATE invoices
		SET status = 'overdue', updated_at = now()
		WHERE status IN ('issued', 'partially_paid')
		  AND due_date < $1
		  AND deleted_at IS NULL
		RETURNING ` + invoiceColumns
	return r.list(ctx, query, asOf)
}

// FindLateFeeCandidates facturas overdue sin punitorio aplicado.
func (r *InvoiceRepo) FindLateFeeCandidates(ctx context.Context) ([]*entity.Invoice, error) {
	query := selectInvoice + `
		WHERE status = 'overdue'
		  AND late_fee = 0
		  AND deleted_at IS NULL
		ORDER BY due_date`
	return r.list(ctx, query)
}

// ApplyLateFee suma el punitorio a late_fee y total en un solo UPDATE con
// guarda late_fee = 0: la segunda aplicación no afecta filas y devuelve false.
func (r *InvoiceRepo) ApplyLateFee(ctx context.Context, invoiceID string, fee decimal.Decimal) (bool, error) {
	const query = `
		UPDATE invoices
		SET late_fee = late_fee + $2, total = total + $2, updated_at = now()
		WHERE id = $1 AND late_fee = 0 AND deleted_at IS NULL`
	tag, err := r.q.Exec(ctx, query, invoiceID, fee)
	if err != nil {
		return false, fmt.Errorf("apply late fee: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SetCAE asienta la autorización electrónica sin tocar el resto de la factura.
func (r *InvoiceRepo) SetCAE(ctx context.Context, invoiceID, cae string, expiry time.Time) error {
	const query = `
		UPDATE invoices
		SET cae = $2, cae_expiry = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.q.Exec(ctx, query, invoiceID, cae, expiry); err != nil {
		return fmt.Errorf("set cae: %w", err)
	}
	return nil
}

// RegisterPayment acredita un pago y transiciona según cubra el total.
func (r *InvoiceRepo) RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, paidAt time.Time) error {
	const query = `
		UPDATE invoices
		SET amount_paid = amount_paid + $2,
		    status = CASE WHEN amount_paid + $2 >= total THEN 'paid' ELSE 'partially_paid' END,
		    paid_at = CASE WHEN amount_paid + $2 >= total THEN $3 ELSE paid_at END,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.q.Exec(ctx, query, invoiceID, amount, paidAt); err != nil {
		return fmt.Errorf("register payment: %w", err)
	}
	return nil
}

// FindPaidInPeriod facturas pagas del propietario con período dentro del mes.
func (r *InvoiceRepo) FindPaidInPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	query := selectInvoice + `
		WHERE owner_id = $1
		  AND status = 'paid'
		  AND period_start >= $2 AND period_start <= $3
		  AND deleted_at IS NULL
		ORDER BY period_start, invoice_number`
	return r.list(ctx, query, ownerID, periodStart, periodEnd)
}

// ListByOwnerPeriod todas las facturas del propietario en el mes.
func (r *InvoiceRepo) ListByOwnerPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	query := selectInvoice + `
		WHERE owner_id = $1
		  AND period_start >= $2 AND period_start <= $3
		  AND deleted_at IS NULL
		ORDER BY period_start, invoice_number`
	return r.list(ctx, query, ownerID, periodStart, periodEnd)
}

// ListSettleablePairs pares (owner, período) con facturas pagas sin
// liquidación completada, cuya regla de fecha aplicable ya se cumplió:
// pago antes del vencimiento y vencimiento llegado, o pago posterior.
func (r *InvoiceRepo) ListSettleablePairs(ctx context.Context, asOf time.Time) ([]repository.OwnerPeriod, error) {
	const query = `
		SELECT DISTINCT i.owner_id, to_char(i.period_start, 'YYYY-MM') AS period
		FROM invoices i
		WHERE i.status = 'paid'
		  AND i.paid_at IS NOT NULL
		  AND i.deleted_at IS NULL
		  AND (
			(i.paid_at::date < i.due_date::date AND i.due_date <= $1)
			OR i.paid_at::date >= i.due_date::date
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM settlements s
			WHERE s.owner_id = i.owner_id
			  AND s.period = to_char(i.period_start, 'YYYY-MM')
			  AND s.status = 'completed'
		  )
		ORDER BY 1, 2`
	rows, err := r.q.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("list settleable pairs: %w", err)
	}
	defer rows.Close()

	var pairs []repository.OwnerPeriod
	for rows.Next() {
		var p repository.OwnerPeriod
		if err := rows.Scan(&p.OwnerID, &p.Period); err != nil {
			return nil, fmt.Errorf("scan settleable pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

const invoiceColumns = `id, lease_id, owner_id, tenant_account_id, invoice_number,
	       period_start, period_end, subtotal, late_fee, adjustments, total,
	       currency_code, amount_paid, due_date, status, issued_at, paid_at,
	       original_amount, original_currency, exchange_rate_used,
	       withholding_iibb, withholding_iva, withholding_ganancias, withholdings_total,
	       adjustment_applied, adjustment_index_type, adjustment_value,
	       cae, cae_expiry, created_at, updated_at, deleted_at`

const selectInvoice = `
	SELECT ` + invoiceColumns + `
	FROM invoices`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var originalCurrency, adjustmentIndexType, cae *string
	err := row.Scan(
		&inv.ID, &inv.LeaseID, &inv.OwnerID, &inv.TenantAccountID, &inv.InvoiceNumber,
		&inv.PeriodStart, &inv.PeriodEnd, &inv.Subtotal, &inv.LateFee, &inv.Adjustments, &inv.Total,
		&inv.CurrencyCode, &inv.AmountPaid, &inv.DueDate, &inv.Status, &inv.IssuedAt, &inv.PaidAt,
		&inv.OriginalAmount, &originalCurrency, &inv.ExchangeRateUsed,
		&inv.WithholdingIIBB, &inv.WithholdingIVA, &inv.WithholdingGanancias, &inv.WithholdingsTotal,
		&inv.AdjustmentApplied, &adjustmentIndexType, &inv.AdjustmentValue,
		&cae, &inv.CAEExpiry, &inv.CreatedAt, &inv.UpdatedAt, &inv.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.OriginalCurrency = derefStr(originalCurrency)
	inv.AdjustmentIndexType = derefStr(adjustmentIndexType)
	inv.CAE = derefStr(cae)
	return &inv, nil
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}
