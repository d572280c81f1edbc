package notify

import (
	"context"

	"github.com/tu-usuario/rentas-pro/internal/application/billing"
	"github.com/tu-usuario/rentas-pro/internal/application/settlement"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

var (
	_ billing.Notifier    = (*LogNotifier)(nil)
	_ settlement.Notifier = (*LogNotifier)(nil)
)

// LogNotifier colaborador de notificaciones respaldado por el log. El envío
// real (email/WhatsApp) lo hace la plataforma; acá solo se registra el evento
// que esa capa consume.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier construye el notificador.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notify")}
}

// SendInvoiceReminder recordatorio de vencimiento próximo al inquilino.
func (n *LogNotifier) SendInvoiceReminder(ctx context.Context, inv *entity.Invoice) error {
	n.log.Info().
		Str("event", "invoice_reminder").
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("tenant_account_id", inv.TenantAccountID).
		Time("due_date", inv.DueDate).
		Str("balance", inv.Balance().StringFixed(2)).
		Msg("recordatorio de vencimiento")
	return nil
}

// SendOverdueNotice aviso de factura vencida al inquilino.
func (n *LogNotifier) SendOverdueNotice(ctx context.Context, inv *entity.Invoice) error {
	n.log.Info().
		Str("event", "invoice_overdue").
		Str("invoice_id", inv.ID).
		Str("invoice_number", inv.InvoiceNumber).
		Str("tenant_account_id", inv.TenantAccountID).
		Time("due_date", inv.DueDate).
		Str("balance", inv.Balance().StringFixed(2)).
		Msg("aviso de factura vencida")
	return nil
}

// SendSettlementNotice aviso de liquidación acreditada al propietario.
func (n *LogNotifier) SendSettlementNotice(ctx context.Context, owner *entity.Owner, s *entity.Settlement) error {
	n.log.Info().
		Str("event", "settlement_completed").
		Str("owner_id", owner.ID).
		Str("period", s.Period).
		Str("net_amount", s.NetAmount.StringFixed(2)).
		Str("transfer_reference", s.TransferReference).
		Msg("liquidación acreditada")
	return nil
}
