package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una factura de alquiler.
const (
	InvoiceStatusDraft         = "draft"
	InvoiceStatusIssued        = "issued"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusOverdue       = "overdue"
	InvoiceStatusCancelled     = "cancelled"
)

// Invoice factura mensual de alquiler emitida por el orquestador de facturación.
// Nace en estado issued; la mutan el barrido de vencidas (issued/partially_paid
// -> overdue), la aplicación de punitorios (suma a LateFee/Total) y la
// confirmación de pagos (-> paid/partially_paid).
type Invoice struct {
	ID              string
	LeaseID         string
	OwnerID         string
	TenantAccountID string
	InvoiceNumber   string // {año}-{secuencial por propietario y año, 5 dígitos}
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Subtotal        decimal.Decimal
	LateFee         decimal.Decimal
	Adjustments     decimal.Decimal
	Total           decimal.Decimal
	CurrencyCode    string
	AmountPaid      decimal.Decimal
	DueDate         time.Time
	Status          string
	IssuedAt        *time.Time
	PaidAt          *time.Time

	// Conversión de moneda (solo si la moneda del contrato difiere de la base).
	OriginalAmount   *decimal.Decimal
	OriginalCurrency string
	ExchangeRateUsed *decimal.Decimal

	// Retenciones fiscales calculadas al emitir.
	WithholdingIIBB      decimal.Decimal
	WithholdingIVA       decimal.Decimal
	WithholdingGanancias decimal.Decimal
	WithholdingsTotal    decimal.Decimal

	// Ajuste de alquiler aplicado en este ciclo.
	AdjustmentApplied   bool
	AdjustmentIndexType string
	AdjustmentValue     decimal.Decimal

	// Autorización de factura electrónica (colaborador externo, best-effort).
	CAE       string
	CAEExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsPending indica si la factura aún espera cobro (estados que el barrido de
// vencidas puede transicionar).
func (i *Invoice) IsPending() bool {
	return i.Status == InvoiceStatusIssued || i.Status == InvoiceStatusPartiallyPaid
}

// Balance saldo pendiente de cobro.
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}
