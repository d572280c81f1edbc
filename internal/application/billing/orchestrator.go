package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/adjustment"
	"github.com/tu-usuario/rentas-pro/internal/application/invoicing"
	"github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/application/withholding"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	domainbilling "github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Config parámetros de negocio del orquestador.
type Config struct {
	BaseCurrency string
	GraceDays    int
	LateFeeRate  decimal.Decimal
	ReminderDays int
}

// Params parámetros de una corrida de facturación.
type Params struct {
	Date    time.Time // cero = hoy
	LeaseID string    // vacío = todos los contratos con facturación vencida
	DryRun  bool
}

// RunReport resultado de una corrida batch (facturación o barridos).
type RunReport struct {
	Total     int
	Processed int
	Failed    int
	Skipped   int
	Errors    []string
}

// Counts proyección del reporte a los contadores del ledger de jobs.
func (r *RunReport) Counts() entity.JobCounts {
	return entity.JobCounts{
		Total:     r.Total,
		Processed: r.Processed,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
	}
}

func (r *RunReport) fail(id string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", id, err))
}

// Orchestrator motor del ciclo de facturación: selecciona contratos a
// facturar, calcula ajuste, conversión y retenciones, persiste la factura y
// avanza el contrato. Las fallas por contrato se acumulan y no abortan la
// corrida (batch de falla parcial, nunca todo-o-nada).
type Orchestrator struct {
	ledger       *invoicing.Ledger
	adjustments  *adjustment.Calculator
	rates        *rates.Resolver
	withholdings *withholding.Calculator
	companies    repository.CompanyRepository
	leases       repository.LeaseRepository
	invoices     repository.InvoiceRepository
	txRunner     BillingTxRunner
	emitter      EInvoiceEmitter
	notifier     Notifier
	cfg          Config
	log          *logger.Logger
	now          func() time.Time
}

// NewOrchestrator construye el orquestador. emitter y notifier pueden ser nil
// (colaboradores best-effort deshabilitados).
func NewOrchestrator(
	ledger *invoicing.Ledger,
	adjustments *adjustment.Calculator,
	rateResolver *rates.Resolver,
	withholdings *withholding.Calculator,
	companies repository.CompanyRepository,
	leases repository.LeaseRepository,
	invoices repository.InvoiceRepository,
	txRunner BillingTxRunner,
	emitter EInvoiceEmitter,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		ledger:       ledger,
		adjustments:  adjustments,
		rates:        rateResolver,
		withholdings: withholdings,
		companies:    companies,
		leases:       leases,
		invoices:     invoices,
		txRunner:     txRunner,
		emitter:      emitter,
		notifier:     notifier,
		cfg:          cfg,
		log:          log.WithComponent("billing"),
		now:          time.Now,
	}
}

// RunBilling ejecuta el ciclo completo de facturación para la fecha dada.
func (o *Orchestrator) RunBilling(ctx context.Context, params Params) (*RunReport, error) {
	billingDate := params.Date
	if billingDate.IsZero() {
		billingDate = o.now()
	}
	billingDate = domainbilling.TruncateDay(billingDate)

	var leases []*entity.Lease
	if params.LeaseID != "" {
		lease, err := o.leases.GetByID(ctx, params.LeaseID)
		if err != nil {
			return nil, fmt.Errorf("cargar contrato %s: %w", params.LeaseID, err)
		}
		if lease == nil {
			return nil, fmt.Errorf("contrato %s: %w", params.LeaseID, domain.ErrNotFound)
		}
		leases = []*entity.Lease{lease}
	} else {
		var err error
		leases, err = o.ledger.GetLeasesForBilling(ctx, billingDate)
		if err != nil {
			return nil, fmt.Errorf("seleccionar contratos a facturar: %w", err)
		}
	}

	report := &RunReport{Total: len(leases)}
	companyCache := make(map[string]*entity.Company)

	for _, lease := range leases {
		if err := o.billLease(ctx, lease, billingDate, params.DryRun, companyCache); err != nil {
			o.log.Error().Err(err).Str("lease_id", lease.ID).Msg("facturación del contrato falló")
			report.fail(lease.ID, err)
			continue
		}
		report.Processed++
	}

	o.log.Info().
		Time("billing_date", billingDate).
		Bool("dry_run", params.DryRun).
		Int("total", report.Total).
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Msg("corrida de facturación finalizada")
	return report, nil
}

func (o *Orchestrator) billLease(ctx context.Context, lease *entity.Lease, billingDate time.Time, dryRun bool, companies map[string]*entity.Company) error {
	company, err := o.companyFor(ctx, lease.CompanyID, companies)
	if err != nil {
		return err
	}
	if lease.CurrencyCode == "" {
		return fmt.Errorf("contrato sin moneda: %w", domain.ErrInvalidInput)
	}

	periodStart, periodEnd := domainbilling.PeriodBounds(billingDate)
	graceDays := company.BillingGraceDays
	if graceDays <= 0 {
		graceDays = o.cfg.GraceDays
	}
	dueDate := domainbilling.DueDate(billingDate, graceDays)

	// 1) Ajuste de alquiler (fail-open si falta el índice).
	subtotal := lease.RentAmount
	var adjRes *adjustment.Result
	if o.adjustments.ShouldApplyAdjustment(lease, billingDate) {
		adjRes, err = o.adjustments.CalculateAdjustedRent(ctx, lease)
		if err != nil {
			return fmt.Errorf("calcular ajuste: %w", err)
		}
		subtotal = adjRes.AdjustedAmount
	}

	inv := &entity.Invoice{
		LeaseID:         lease.ID,
		OwnerID:         lease.OwnerID,
		TenantAccountID: lease.TenantAccountID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		DueDate:         dueDate,
		CurrencyCode:    lease.CurrencyCode,
		LateFee:         decimal.Zero,
		Adjustments:     decimal.Zero,
	}
	if adjRes != nil && adjRes.Applied {
		inv.AdjustmentApplied = true
		inv.AdjustmentIndexType = adjRes.IndexType
		inv.AdjustmentValue = adjRes.AdjustmentRate
		inv.Adjustments = adjRes.AdjustedAmount.Sub(adjRes.OriginalAmount)
	}

	// 2) Conversión a la moneda base de la empresa.
	baseCurrency := company.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = o.cfg.BaseCurrency
	}
	if lease.CurrencyCode != baseCurrency {
		conv, err := o.rates.ConvertAmount(ctx, subtotal, lease.CurrencyCode, baseCurrency, billingDate)
		if err != nil {
			return fmt.Errorf("convertir %s a %s: %w", lease.CurrencyCode, baseCurrency, err)
		}
		original := subtotal
		inv.OriginalAmount = &original
		inv.OriginalCurrency = lease.CurrencyCode
		inv.ExchangeRateUsed = &conv.Rate
		inv.CurrencyCode = baseCurrency
		subtotal = conv.Amount
	}

	// 3) Retenciones sobre el subtotal convertido.
	wh, err := o.withholdings.CalculateWithholdings(ctx, lease.CompanyID, lease.OwnerID, subtotal)
	if err != nil {
		return fmt.Errorf("calcular retenciones: %w", err)
	}

	inv.Subtotal = subtotal
	inv.WithholdingIIBB = wh.IIBB
	inv.WithholdingIVA = wh.IVA
	inv.WithholdingGanancias = wh.Ganancias
	inv.WithholdingsTotal = wh.Total
	inv.Total = subtotal.Sub(wh.Total)

	if dryRun {
		o.log.Info().
			Str("lease_id", lease.ID).
			Str("subtotal", inv.Subtotal.StringFixed(2)).
			Str("total", inv.Total.StringFixed(2)).
			Msg("dry-run: factura calculada, sin persistir")
		return nil
	}

	// 4) Alta de factura y avance del contrato, atómicos.
	nextBilling := domainbilling.NextBillingDate(billingDate, lease.PaymentFrequency)
	err = o.txRunner.RunBilling(ctx, func(invoiceRepo repository.InvoiceRepository, leaseRepo repository.LeaseRepository) error {
		if err := o.ledger.Create(ctx, invoiceRepo, inv); err != nil {
			return err
		}
		if err := leaseRepo.AdvanceBillingDates(ctx, lease.ID, billingDate, nextBilling); err != nil {
			return fmt.Errorf("avanzar fechas de facturación: %w", err)
		}
		if inv.AdjustmentApplied {
			months := lease.AdjustmentFrequencyMonths
			if months <= 0 {
				months = 12
			}
			nextAdj := billingDate.AddDate(0, months, 0)
			if err := leaseRepo.ApplyAdjustment(ctx, lease.ID, adjRes.AdjustedAmount, billingDate, nextAdj); err != nil {
				return fmt.Errorf("persistir ajuste: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 5) Emisión electrónica, fuera de la transacción y best-effort: una falla
	// del WS se loguea y la factura queda issued igual.
	if o.emitter != nil {
		if res, err := o.emitter.Emit(ctx, inv, company); err != nil {
			o.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("emisión electrónica falló")
		} else if res != nil {
			if err := o.invoices.SetCAE(ctx, inv.ID, res.CAE, res.CAEExpiry); err != nil {
				o.log.Warn().Err(err).Str("invoice_id", inv.ID).Msg("no se pudo asentar el CAE")
			}
		}
	}
	return nil
}

func (o *Orchestrator) companyFor(ctx context.Context, companyID string, cache map[string]*entity.Company) (*entity.Company, error) {
	if c, ok := cache[companyID]; ok {
		return c, nil
	}
	company, err := o.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("cargar empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrNotFound)
	}
	cache[companyID] = company
	return company, nil
}
