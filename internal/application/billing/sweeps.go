package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	domainbilling "github.com/tu-usuario/rentas-pro/internal/domain/billing"
)

// ProcessOverdue barrido de vencidas: delega por completo en el UPDATE con
// guarda del libro de facturas, por lo que re-ejecutarlo es idempotente.
// En dry-run solo cuenta cuántas facturas transicionarían.
func (o *Orchestrator) ProcessOverdue(ctx context.Context, dryRun bool) (*RunReport, error) {
	report := &RunReport{}

	if dryRun {
		overdue, err := o.ledger.FindOverdue(ctx)
		if err != nil {
			return nil, fmt.Errorf("listar facturas vencidas: %w", err)
		}
		report.Total = len(overdue)
		report.Skipped = len(overdue)
		o.log.Info().Int("would_mark", len(overdue)).Msg("dry-run: facturas que pasarían a overdue")
		return report, nil
	}

	marked, err := o.ledger.MarkOverdue(ctx)
	if err != nil {
		return nil, err
	}
	report.Total = len(marked)
	report.Processed = len(marked)

	// Aviso de mora best-effort, solo para las recién transicionadas: las que
	// ya estaban overdue recibieron el suyo en la corrida que las marcó.
	if o.notifier != nil {
		for _, inv := range marked {
			if err := o.notifier.SendOverdueNotice(ctx, inv); err != nil {
				o.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("aviso de mora falló")
			}
		}
	}
	return report, nil
}

// ProcessLateFees barrido de punitorios: solo toca facturas overdue con
// late_fee = 0, lo que garantiza a lo sumo una aplicación por factura aun
// si el job se re-ejecuta. Tasa cero o negativa usa la configurada.
func (o *Orchestrator) ProcessLateFees(ctx context.Context, rate decimal.Decimal, dryRun bool) (*RunReport, error) {
	if !rate.GreaterThan(decimal.Zero) {
		rate = o.cfg.LateFeeRate
	}

	candidates, err := o.invoices.FindLateFeeCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar candidatas a punitorio: %w", err)
	}

	report := &RunReport{Total: len(candidates)}
	for _, inv := range candidates {
		fee := domainbilling.Percentage(inv.Total, rate)
		if dryRun {
			report.Skipped++
			continue
		}
		applied, err := o.ledger.ApplyLateFee(ctx, inv.ID, fee)
		if err != nil {
			report.fail(inv.ID, err)
			continue
		}
		if !applied {
			// Otra corrida llegó primero: la guarda late_fee = 0 evitó el doble cargo.
			report.Skipped++
			continue
		}
		report.Processed++
	}
	return report, nil
}

// ProcessReminders envía recordatorios de vencimiento para facturas
// pendientes que vencen dentro de la ventana. La entrega la hace el
// colaborador de notificaciones; sus fallas se acumulan por factura.
func (o *Orchestrator) ProcessReminders(ctx context.Context, daysBefore int, dryRun bool) (*RunReport, error) {
	if daysBefore <= 0 {
		daysBefore = o.cfg.ReminderDays
	}

	invoices, err := o.ledger.FindPendingDueSoon(ctx, daysBefore)
	if err != nil {
		return nil, fmt.Errorf("listar facturas por vencer: %w", err)
	}

	report := &RunReport{Total: len(invoices)}
	for _, inv := range invoices {
		if dryRun {
			report.Skipped++
			continue
		}
		if o.notifier == nil {
			report.Skipped++
			continue
		}
		if err := o.notifier.SendInvoiceReminder(ctx, inv); err != nil {
			report.fail(inv.ID, err)
			continue
		}
		report.Processed++
	}
	return report, nil
}
