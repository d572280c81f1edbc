package billing

import (
	"context"
	"time"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción que incluye
// los repos de facturas y contratos: el alta de la factura y el avance de los
// trackers del contrato son atómicos.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		leaseRepo repository.LeaseRepository,
	) error) error
}

// EmissionResult autorización devuelta por el WS de factura electrónica.
type EmissionResult struct {
	CAE       string
	CAEExpiry time.Time
}

// EInvoiceEmitter puerto de salida hacia el emisor de factura electrónica
// (ARCA/AFIP). Se invoca después de emitir la factura; sus fallas se loguean
// y nunca bloquean la emisión.
type EInvoiceEmitter interface {
	Emit(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*EmissionResult, error)
}

// Notifier puerto de salida hacia el colaborador de notificaciones
// (email/WhatsApp). Todas las llamadas son best-effort.
type Notifier interface {
	SendInvoiceReminder(ctx context.Context, inv *entity.Invoice) error
	SendOverdueNotice(ctx context.Context, inv *entity.Invoice) error
}
