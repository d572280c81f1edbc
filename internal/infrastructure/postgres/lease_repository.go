package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.LeaseRepository = (*LeaseRepo)(nil)

// LeaseRepo implementación de LeaseRepository (usable con pool o tx).
type LeaseRepo struct {
	q Querier
}

// NewLeaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLeaseRepository(q Querier) *LeaseRepo {
	return &LeaseRepo{q: q}
}

// GetByID obtiene un contrato por ID. Sin fila devuelve nil.
func (r *LeaseRepo) GetByID(ctx context.Context, id string) (*entity.Lease, error) {
	query := selectLease + ` WHERE id = $1 AND deleted_at IS NULL`
	lease, err := scanLease(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lease: %w", err)
	}
	return lease, nil
}

// ListForBilling contratos facturables en billingDate: activos, vigentes,
// con next_billing_date vencida (o nunca facturados) y billing_day compatible.
func (r *LeaseRepo) ListForBilling(ctx context.Context, billingDate time.Time) ([]*entity.Lease, error) {
	query := selectLease + `
		WHERE status = 'active'
		  AND deleted_at IS NULL
		  AND start_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
		  AND (next_billing_date IS NULL OR next_billing_date <= $1)
		  AND (billing_day = 0 OR billing_day = $2)
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, billingDate, billingDate.Day())
	if err != nil {
		return nil, fmt.Errorf("list leases for billing: %w", err)
	}
	defer rows.Close()

	var list []*entity.Lease
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lease: %w", err)
		}
		list = append(list, lease)
	}
	return list, rows.Err()
}

// AdvanceBillingDates corre los trackers de facturación del contrato.
func (r *LeaseRepo) AdvanceBillingDates(ctx context.Context, leaseID string, last, next time.Time) error {
	const query = `
		UPDATE leases
		SET last_billing_date = $2, next_billing_date = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.q.Exec(ctx, query, leaseID, last, next); err != nil {
		return fmt.Errorf("advance billing dates: %w", err)
	}
	return nil
}

// ApplyAdjustment persiste el alquiler ajustado y corre los trackers de ajuste.
func (r *LeaseRepo) ApplyAdjustment(ctx context.Context, leaseID string, newRent decimal.Decimal, last, next time.Time) error {
	const query = `
		UPDATE leases
		SET rent_amount = $2, last_adjustment_date = $3, next_adjustment_date = $4,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.q.Exec(ctx, query, leaseID, newRent, last, next); err != nil {
		return fmt.Errorf("apply adjustment: %w", err)
	}
	return nil
}

const selectLease = `
	SELECT id, company_id, owner_id, tenant_account_id, unit_id, status,
	       start_date, end_date, rent_amount, currency_code,
	       payment_frequency, billing_day, next_billing_date, last_billing_date,
	       adjustment_type, adjustment_rate, adjustment_frequency_months,
	       next_adjustment_date, last_adjustment_date,
	       created_at, updated_at, deleted_at
	FROM leases`

func scanLease(row pgx.Row) (*entity.Lease, error) {
	var l entity.Lease
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.OwnerID, &l.TenantAccountID, &l.UnitID, &l.Status,
		&l.StartDate, &l.EndDate, &l.RentAmount, &l.CurrencyCode,
		&l.PaymentFrequency, &l.BillingDay, &l.NextBillingDate, &l.LastBillingDate,
		&l.AdjustmentType, &l.AdjustmentRate, &l.AdjustmentFrequencyMonths,
		&l.NextAdjustmentDate, &l.LastAdjustmentDate,
		&l.CreatedAt, &l.UpdatedAt, &l.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
