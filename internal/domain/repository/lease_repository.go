package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// LeaseRepository puerto de lectura de contratos y escritura de sus trackers
// de facturación/ajuste (el resto del contrato lo administra el CRUD externo).
type LeaseRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Lease, error)
	// ListForBilling contratos activos, no borrados, con next_billing_date nula
	// o <= billingDate, cuyo billing_day (si está fijado) coincide con el día
	// del mes de billingDate y cuya vigencia cubre billingDate.
	ListForBilling(ctx context.Context, billingDate time.Time) ([]*entity.Lease, error)
	// AdvanceBillingDates escribe last_billing_date y next_billing_date.
	AdvanceBillingDates(ctx context.Context, leaseID string, last, next time.Time) error
	// ApplyAdjustment persiste el nuevo alquiler ajustado y corre los trackers
	// de ajuste (last_adjustment_date, next_adjustment_date).
	ApplyAdjustment(ctx context.Context, leaseID string, newRent decimal.Decimal, last, next time.Time) error
}
