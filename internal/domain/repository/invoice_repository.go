package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// OwnerPeriod par (propietario, período) con facturas cobradas sin liquidar.
type OwnerPeriod struct {
	OwnerID string
	Period  string // YYYY-MM
}

// InvoiceRepository puerto de persistencia de facturas. Todas las consultas
// excluyen facturas con soft delete.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// NextSequence próximo secuencial de numeración para el propietario y año.
	NextSequence(ctx context.Context, ownerID string, year int) (int64, error)
	// FindDueSoon facturas pendientes con vencimiento dentro de la ventana [from, to].
	FindDueSoon(ctx context.Context, from, to time.Time) ([]*entity.Invoice, error)
	// FindOverdue facturas pendientes vencidas estrictamente antes de asOf.
	FindOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error)
	// MarkOverdue transiciona en un solo UPDATE todas las facturas pendientes
	// vencidas antes de asOf y devuelve las facturas transicionadas en esta
	// corrida (no las que ya estaban overdue).
	MarkOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error)
	// FindLateFeeCandidates facturas en estado overdue sin punitorio aplicado
	// (late_fee = 0), el conjunto que barre el job late-fees.
	FindLateFeeCandidates(ctx context.Context) ([]*entity.Invoice, error)
	// ApplyLateFee suma el punitorio a late_fee y total. El UPDATE lleva guarda
	// late_fee = 0: devuelve false si la factura ya tenía punitorio aplicado.
	ApplyLateFee(ctx context.Context, invoiceID string, fee decimal.Decimal) (bool, error)
	// SetCAE asienta la autorización de factura electrónica (best-effort,
	// posterior a la emisión).
	SetCAE(ctx context.Context, invoiceID, cae string, expiry time.Time) error
	// RegisterPayment acredita un pago: suma amount_paid y transiciona a
	// paid/partially_paid según cubra o no el total.
	RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, paidAt time.Time) error
	// FindPaidInPeriod facturas pagas del propietario cuyo período cae en el mes dado.
	FindPaidInPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error)
	// ListByOwnerPeriod todas las facturas del propietario en el mes (para reportes).
	ListByOwnerPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error)
	// ListSettleablePairs pares (propietario, período) con facturas pagas sin
	// liquidación completada cuya regla de fecha aplicable ya se cumplió a asOf.
	ListSettleablePairs(ctx context.Context, asOf time.Time) ([]OwnerPeriod, error)
}
