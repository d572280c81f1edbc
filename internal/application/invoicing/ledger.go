package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Ledger libro de facturas: numeración, consultas de vencimiento y
// transiciones de estado. Es la fuente de verdad del período facturado de
// cada contrato.
type Ledger struct {
	invoices repository.InvoiceRepository
	leases   repository.LeaseRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewLedger construye el libro de facturas.
func NewLedger(invoices repository.InvoiceRepository, leases repository.LeaseRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		invoices: invoices,
		leases:   leases,
		log:      log.WithComponent("invoicing"),
		now:      time.Now,
	}
}

// Create numera y persiste la factura en estado issued con issued_at = ahora.
// El número es {año}-{secuencial por propietario y año} con relleno a 5
// dígitos. Acepta un repo alternativo para correr dentro de una transacción.
func (l *Ledger) Create(ctx context.Context, repo repository.InvoiceRepository, inv *entity.Invoice) error {
	if repo == nil {
		repo = l.invoices
	}
	now := l.now().UTC()
	year := inv.PeriodStart.Year()

	seq, err := repo.NextSequence(ctx, inv.OwnerID, year)
	if err != nil {
		return fmt.Errorf("numerar factura: %w", err)
	}

	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	inv.InvoiceNumber = billing.FormatInvoiceNumber(year, seq)
	inv.Status = entity.InvoiceStatusIssued
	inv.IssuedAt = &now
	inv.AmountPaid = decimal.Zero
	inv.CreatedAt = now
	inv.UpdatedAt = now

	if err := repo.Create(ctx, inv); err != nil {
		return fmt.Errorf("insertar factura: %w", err)
	}
	return nil
}

// FindPendingDueSoon facturas pendientes (issued/partially_paid) que vencen
// dentro de los próximos daysBefore días. Excluye soft-deleted.
func (l *Ledger) FindPendingDueSoon(ctx context.Context, daysBefore int) ([]*entity.Invoice, error) {
	today := billing.TruncateDay(l.now())
	return l.invoices.FindDueSoon(ctx, today, today.AddDate(0, 0, daysBefore))
}

// FindOverdue facturas pendientes con vencimiento estrictamente anterior a hoy.
func (l *Ledger) FindOverdue(ctx context.Context) ([]*entity.Invoice, error) {
	return l.invoices.FindOverdue(ctx, billing.TruncateDay(l.now()))
}

// MarkOverdue transiciona a overdue, en un solo UPDATE con guarda, todas las
// facturas pendientes vencidas. Devuelve únicamente las transicionadas en
// esta corrida: las que ya estaban overdue no vuelven a salir.
func (l *Ledger) MarkOverdue(ctx context.Context) ([]*entity.Invoice, error) {
	marked, err := l.invoices.MarkOverdue(ctx, billing.TruncateDay(l.now()))
	if err != nil {
		return nil, fmt.Errorf("marcar facturas vencidas: %w", err)
	}
	if len(marked) > 0 {
		l.log.Info().Int("count", len(marked)).Msg("facturas transicionadas a overdue")
	}
	return marked, nil
}

// ApplyLateFee suma el punitorio a late_fee y total. Es aditivo y debe
// invocarse una sola vez por factura vencida: la guarda late_fee = 0 del
// UPDATE hace que la segunda aplicación devuelva false sin tocar nada.
func (l *Ledger) ApplyLateFee(ctx context.Context, invoiceID string, fee decimal.Decimal) (bool, error) {
	applied, err := l.invoices.ApplyLateFee(ctx, invoiceID, fee)
	if err != nil {
		return false, fmt.Errorf("aplicar punitorio a %s: %w", invoiceID, err)
	}
	return applied, nil
}

// RegisterPayment acredita un pago confirmado por el colaborador de cobranzas:
// suma amount_paid y transiciona a paid o partially_paid según cubra el total.
func (l *Ledger) RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, paidAt time.Time) error {
	if err := l.invoices.RegisterPayment(ctx, invoiceID, amount, paidAt); err != nil {
		return fmt.Errorf("registrar pago en %s: %w", invoiceID, err)
	}
	return nil
}

// GetLeasesForBilling contratos activos que corresponde facturar en la fecha
// dada: next_billing_date nula o vencida, billing_day coincidente si está
// fijado y vigencia del contrato cubriendo la fecha.
func (l *Ledger) GetLeasesForBilling(ctx context.Context, billingDate time.Time) ([]*entity.Lease, error) {
	return l.leases.ListForBilling(ctx, billing.TruncateDay(billingDate))
}
