package billing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appbilling "github.com/tu-usuario/rentas-pro/internal/application/billing"
	"github.com/tu-usuario/rentas-pro/internal/application/adjustment"
	"github.com/tu-usuario/rentas-pro/internal/application/invoicing"
	"github.com/tu-usuario/rentas-pro/internal/application/rates"
	"github.com/tu-usuario/rentas-pro/internal/application/withholding"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// ─── Fakes de repos ──────────────────────────────────────────────────────────

// memInvoiceRepo repo de facturas en memoria para la corrida de facturación.
type memInvoiceRepo struct {
	created       []*entity.Invoice
	caes          map[string]string
	candidates    []*entity.Invoice
	lateFeeResult map[string]bool
	overdue       []*entity.Invoice
	dueSoon       []*entity.Invoice
	markedOverdue []*entity.Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{caes: map[string]string{}, lateFeeResult: map[string]bool{}}
}

func (m *memInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	snapshot := *inv
	m.created = append(m.created, &snapshot)
	return nil
}

func (m *memInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return nil, nil
}

func (m *memInvoiceRepo) NextSequence(ctx context.Context, ownerID string, year int) (int64, error) {
	count := int64(0)
	for _, inv := range m.created {
		if inv.OwnerID == ownerID && inv.PeriodStart.Year() == year {
			count++
		}
	}
	return count + 1, nil
}

func (m *memInvoiceRepo) FindDueSoon(ctx context.Context, from, to time.Time) ([]*entity.Invoice, error) {
	return m.dueSoon, nil
}

func (m *memInvoiceRepo) FindOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	return m.overdue, nil
}

func (m *memInvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	return m.markedOverdue, nil
}

func (m *memInvoiceRepo) FindLateFeeCandidates(ctx context.Context) ([]*entity.Invoice, error) {
	return m.candidates, nil
}

func (m *memInvoiceRepo) ApplyLateFee(ctx context.Context, invoiceID string, fee decimal.Decimal) (bool, error) {
	return m.lateFeeResult[invoiceID], nil
}

func (m *memInvoiceRepo) SetCAE(ctx context.Context, invoiceID, cae string, expiry time.Time) error {
	m.caes[invoiceID] = cae
	return nil
}

func (m *memInvoiceRepo) RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, paidAt time.Time) error {
	return nil
}

func (m *memInvoiceRepo) FindPaidInPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}

func (m *memInvoiceRepo) ListByOwnerPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}

func (m *memInvoiceRepo) ListSettleablePairs(ctx context.Context, asOf time.Time) ([]repository.OwnerPeriod, error) {
	return nil, nil
}

type memLeaseRepo struct {
	leases      []*entity.Lease
	advanced    map[string]time.Time // lease -> next_billing_date escrita
	adjusted    map[string]decimal.Decimal
	adjustDates map[string]time.Time
}

func newMemLeaseRepo(leases ...*entity.Lease) *memLeaseRepo {
	return &memLeaseRepo{
		leases:      leases,
		advanced:    map[string]time.Time{},
		adjusted:    map[string]decimal.Decimal{},
		adjustDates: map[string]time.Time{},
	}
}

func (m *memLeaseRepo) GetByID(ctx context.Context, id string) (*entity.Lease, error) {
	for _, l := range m.leases {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, nil
}

func (m *memLeaseRepo) ListForBilling(ctx context.Context, billingDate time.Time) ([]*entity.Lease, error) {
	return m.leases, nil
}

func (m *memLeaseRepo) AdvanceBillingDates(ctx context.Context, leaseID string, last, next time.Time) error {
	m.advanced[leaseID] = next
	return nil
}

func (m *memLeaseRepo) ApplyAdjustment(ctx context.Context, leaseID string, newRent decimal.Decimal, last, next time.Time) error {
	m.adjusted[leaseID] = newRent
	m.adjustDates[leaseID] = next
	return nil
}

type memCompanyRepo struct{ company *entity.Company }

func (m *memCompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return m.company, nil
}

type memOwnerRepo struct{ owner *entity.Owner }

func (m *memOwnerRepo) GetByID(ctx context.Context, id string) (*entity.Owner, error) {
	return m.owner, nil
}

type memIndexRepo struct{}

func (memIndexRepo) Upsert(ctx context.Context, p *entity.InflationIndexPoint) error { return nil }
func (memIndexRepo) GetLatest(ctx context.Context, indexType string) (*entity.InflationIndexPoint, error) {
	return nil, nil
}
func (memIndexRepo) GetLatestAtOrBefore(ctx context.Context, indexType string, period time.Time) (*entity.InflationIndexPoint, error) {
	return nil, nil
}

type memRateRepo struct {
	rates map[string]*entity.ExchangeRate
}

func (m *memRateRepo) Upsert(ctx context.Context, rate *entity.ExchangeRate) error { return nil }
func (m *memRateRepo) GetLatestAtOrBefore(ctx context.Context, from, to string, date time.Time) (*entity.ExchangeRate, error) {
	return m.rates[from+to], nil
}

// ─── Fakes de colaboradores ──────────────────────────────────────────────────

// fakeTxRunner ejecuta la función directamente sobre los repos en memoria,
// sin transacción real.
type fakeTxRunner struct {
	invoices repository.InvoiceRepository
	leases   repository.LeaseRepository
}

func (f *fakeTxRunner) RunBilling(ctx context.Context, fn func(repository.InvoiceRepository, repository.LeaseRepository) error) error {
	return fn(f.invoices, f.leases)
}

type fakeEmitter struct {
	cae string
	err error
}

func (f *fakeEmitter) Emit(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*appbilling.EmissionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &appbilling.EmissionResult{CAE: f.cae, CAEExpiry: time.Now().AddDate(0, 0, 10)}, nil
}

type fakeNotifier struct {
	reminders int
	overdues  int
	err       error
}

func (f *fakeNotifier) SendInvoiceReminder(ctx context.Context, inv *entity.Invoice) error {
	f.reminders++
	return f.err
}

func (f *fakeNotifier) SendOverdueNotice(ctx context.Context, inv *entity.Invoice) error {
	f.overdues++
	return f.err
}

// ─── Armado ──────────────────────────────────────────────────────────────────

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	invoices *memInvoiceRepo
	leases   *memLeaseRepo
	company  *entity.Company
	emitter  *fakeEmitter
	notifier *fakeNotifier
	rates    *memRateRepo
}

func newFixture(leases ...*entity.Lease) *fixture {
	return &fixture{
		invoices: newMemInvoiceRepo(),
		leases:   newMemLeaseRepo(leases...),
		company:  &entity.Company{ID: "c1", BaseCurrency: "ARS", BillingGraceDays: 10},
		emitter:  &fakeEmitter{cae: "75123456789012"},
		notifier: &fakeNotifier{},
		rates:    &memRateRepo{rates: map[string]*entity.ExchangeRate{}},
	}
}

func (f *fixture) orchestrator() *appbilling.Orchestrator {
	log := testLogger()
	companyRepo := &memCompanyRepo{company: f.company}
	ownerRepo := &memOwnerRepo{owner: &entity.Owner{ID: "o1", CompanyID: "c1"}}

	ledger := invoicing.NewLedger(f.invoices, f.leases, log)
	adjCalc := adjustment.NewCalculator(memIndexRepo{}, log)
	whCalc := withholding.NewCalculator(companyRepo, ownerRepo, log)
	resolver := rates.NewResolver(f.rates, nil, log)

	return appbilling.NewOrchestrator(
		ledger, adjCalc, resolver, whCalc,
		companyRepo, f.leases, f.invoices,
		&fakeTxRunner{invoices: f.invoices, leases: f.leases},
		f.emitter, f.notifier,
		appbilling.Config{
			BaseCurrency: "ARS",
			GraceDays:    10,
			LateFeeRate:  decimal.NewFromInt(5),
			ReminderDays: 3,
		},
		log,
	)
}

func monthlyLease(id string, rent int64) *entity.Lease {
	return &entity.Lease{
		ID:               id,
		CompanyID:        "c1",
		OwnerID:          "o1",
		TenantAccountID:  "t1",
		Status:           entity.LeaseStatusActive,
		RentAmount:       decimal.NewFromInt(rent),
		CurrencyCode:     "ARS",
		PaymentFrequency: entity.FrequencyMonthly,
	}
}

// ─── Tests de la corrida de facturación ──────────────────────────────────────

// TestRunBilling_EmiteYAvanzaContrato camino feliz en ARS sin ajuste: la
// factura nace issued, numerada, con vencimiento a los días de gracia, y el
// contrato avanza un mes.
func TestRunBilling_EmiteYAvanzaContrato(t *testing.T) {
	fix := newFixture(monthlyLease("l1", 150000))
	orch := fix.orchestrator()

	report, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Failed)

	require.Len(t, fix.invoices.created, 1)
	inv := fix.invoices.created[0]
	assert.Equal(t, entity.InvoiceStatusIssued, inv.Status)
	assert.Equal(t, "2025-00001", inv.InvoiceNumber)
	assert.Equal(t, day(2025, time.July, 1), inv.PeriodStart)
	assert.Equal(t, day(2025, time.July, 31), inv.PeriodEnd)
	assert.Equal(t, day(2025, time.July, 11), inv.DueDate, "vencimiento = fecha + 10 días de gracia")
	assert.Equal(t, "150000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "150000.00", inv.Total.StringFixed(2), "empresa no agente: sin retenciones")
	assert.True(t, inv.AmountPaid.IsZero())

	assert.Equal(t, day(2025, time.August, 1), fix.leases.advanced["l1"], "el contrato avanza un mes")
	assert.Equal(t, "75123456789012", fix.invoices.caes[inv.ID], "CAE asentado tras la emisión")
}

// TestRunBilling_DryRun calcula todo pero no persiste ni avanza contratos.
func TestRunBilling_DryRun(t *testing.T) {
	fix := newFixture(monthlyLease("l1", 150000))
	orch := fix.orchestrator()

	report, err := orch.RunBilling(context.Background(), appbilling.Params{
		Date: day(2025, time.July, 1), DryRun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Empty(t, fix.invoices.created)
	assert.Empty(t, fix.leases.advanced)
}

// TestRunBilling_ConversionDeMoneda contrato en USD con base ARS: el subtotal
// se convierte con la cotización cacheada y la factura conserva la pista de
// auditoría (monto original, moneda original, tasa usada).
func TestRunBilling_ConversionDeMoneda(t *testing.T) {
	lease := monthlyLease("l1", 800)
	lease.CurrencyCode = "USD"
	fix := newFixture(lease)
	fix.rates.rates["USDARS"] = &entity.ExchangeRate{
		FromCurrency: "USD", ToCurrency: "ARS",
		Rate:     decimal.RequireFromString("1250.50"),
		RateDate: day(2025, time.June, 30),
	}
	orch := fix.orchestrator()

	report, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)

	inv := fix.invoices.created[0]
	assert.Equal(t, "ARS", inv.CurrencyCode)
	assert.Equal(t, "1000400.00", inv.Subtotal.StringFixed(2), "800 * 1250.50")
	require.NotNil(t, inv.OriginalAmount)
	assert.Equal(t, "800.00", inv.OriginalAmount.StringFixed(2))
	assert.Equal(t, "USD", inv.OriginalCurrency)
	require.NotNil(t, inv.ExchangeRateUsed)
	assert.Equal(t, "1250.5", inv.ExchangeRateUsed.String())
}

// TestRunBilling_SinCotizacionFalla sin cotización disponible la factura de
// ese contrato falla (no se emite en moneda equivocada) pero la corrida sigue.
func TestRunBilling_SinCotizacionFalla(t *testing.T) {
	usd := monthlyLease("l-usd", 800)
	usd.CurrencyCode = "USD"
	fix := newFixture(usd, monthlyLease("l-ars", 100000))
	orch := fix.orchestrator()

	report, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err, "la corrida nunca aborta por un contrato")
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "l-usd")
	require.Len(t, fix.invoices.created, 1)
	assert.Equal(t, "l-ars", fix.invoices.created[0].LeaseID)
}

// TestRunBilling_ConRetenciones empresa agente de retención: el total es el
// subtotal menos las retenciones, con el desglose asentado en la factura.
func TestRunBilling_ConRetenciones(t *testing.T) {
	fix := newFixture(monthlyLease("l1", 100000))
	fix.company.Withholding = entity.WithholdingConfig{
		IsWithholdingAgent: true,
		IIBBRate:           decimal.RequireFromString("3.5"),
		IIBBJurisdiction:   "CABA",
	}
	orch := fix.orchestrator()

	_, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err)

	inv := fix.invoices.created[0]
	assert.Equal(t, "3500.00", inv.WithholdingIIBB.StringFixed(2))
	assert.Equal(t, "3500.00", inv.WithholdingsTotal.StringFixed(2))
	assert.Equal(t, "96500.00", inv.Total.StringFixed(2))
}

// TestRunBilling_AjusteFijo con next_adjustment_date vencida el alquiler se
// ajusta, la factura registra el ajuste y el contrato persiste el nuevo monto
// con el tracker corrido.
func TestRunBilling_AjusteFijo(t *testing.T) {
	lease := monthlyLease("l1", 100000)
	lease.AdjustmentType = entity.AdjustmentFixed
	lease.AdjustmentRate = decimal.NewFromInt(10)
	lease.AdjustmentFrequencyMonths = 6
	next := day(2025, time.July, 1)
	lease.NextAdjustmentDate = &next
	fix := newFixture(lease)
	orch := fix.orchestrator()

	_, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err)

	inv := fix.invoices.created[0]
	assert.True(t, inv.AdjustmentApplied)
	assert.Equal(t, "110000.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "10000.00", inv.Adjustments.StringFixed(2))

	assert.Equal(t, "110000", fix.leases.adjusted["l1"].String(), "el contrato persiste el nuevo alquiler")
	assert.Equal(t, day(2026, time.January, 1), fix.leases.adjustDates["l1"], "próximo ajuste a 6 meses")
}

// TestRunBilling_EmisionElectronicaFallida la falla del WS se absorbe: la
// factura queda issued sin CAE y la corrida no registra el contrato como
// fallido.
func TestRunBilling_EmisionElectronicaFallida(t *testing.T) {
	fix := newFixture(monthlyLease("l1", 150000))
	fix.emitter.err = errors.New("WSAA no disponible")
	orch := fix.orchestrator()

	report, err := orch.RunBilling(context.Background(), appbilling.Params{Date: day(2025, time.July, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Zero(t, report.Failed)
	require.Len(t, fix.invoices.created, 1)
	assert.Empty(t, fix.invoices.caes)
}

// ─── Tests de barridos ───────────────────────────────────────────────────────

// TestProcessOverdue_DryRun solo cuenta cuántas facturas transicionarían.
func TestProcessOverdue_DryRun(t *testing.T) {
	fix := newFixture()
	fix.invoices.overdue = []*entity.Invoice{{ID: "i1"}, {ID: "i2"}}
	orch := fix.orchestrator()

	report, err := orch.ProcessOverdue(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Processed)
}

// TestProcessOverdue_MarcaYNotifica marca vencidas vía el UPDATE con guarda y
// envía el aviso de mora best-effort por factura transicionada.
func TestProcessOverdue_MarcaYNotifica(t *testing.T) {
	fix := newFixture()
	fix.invoices.markedOverdue = []*entity.Invoice{{ID: "i1"}, {ID: "i2"}, {ID: "i3"}}
	orch := fix.orchestrator()

	report, err := orch.ProcessOverdue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 3, fix.notifier.overdues)
}

// TestProcessOverdue_NoRenotificaViejas el aviso de mora sale solo para las
// facturas transicionadas en esta corrida: las que ya estaban overdue de
// corridas anteriores no reciben un segundo aviso.
func TestProcessOverdue_NoRenotificaViejas(t *testing.T) {
	fix := newFixture()
	// i1 e i2 ya estaban overdue; solo i3 transiciona en esta corrida.
	fix.invoices.overdue = []*entity.Invoice{{ID: "i1"}, {ID: "i2"}, {ID: "i3"}}
	fix.invoices.markedOverdue = []*entity.Invoice{{ID: "i3"}}
	orch := fix.orchestrator()

	report, err := orch.ProcessOverdue(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, fix.notifier.overdues, "una sola notificación, la de i3")
}

// TestProcessLateFees_GuardaEvitaDobleCargo la guarda late_fee = 0 hace que
// una factura ya recargada cuente como skipped, nunca como doble aplicación.
func TestProcessLateFees_GuardaEvitaDobleCargo(t *testing.T) {
	fix := newFixture()
	fix.invoices.candidates = []*entity.Invoice{
		{ID: "i1", Total: decimal.NewFromInt(100000)},
		{ID: "i2", Total: decimal.NewFromInt(50000)},
	}
	fix.invoices.lateFeeResult = map[string]bool{"i1": true, "i2": false}
	orch := fix.orchestrator()

	report, err := orch.ProcessLateFees(context.Background(), decimal.Zero, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Skipped, "la guarda evitó el doble cargo")
	assert.Zero(t, report.Failed)
}

// TestProcessReminders_FallasPorFactura las fallas de entrega se acumulan por
// factura sin abortar el barrido.
func TestProcessReminders_FallasPorFactura(t *testing.T) {
	fix := newFixture()
	fix.invoices.dueSoon = []*entity.Invoice{{ID: "i1"}, {ID: "i2"}}
	fix.notifier.err = errors.New("smtp caído")
	orch := fix.orchestrator()

	report, err := orch.ProcessReminders(context.Background(), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Failed)
	assert.Len(t, report.Errors, 2)
}
