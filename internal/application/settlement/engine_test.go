package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/rentas-pro/internal/application/settlement"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// stubInvoiceRepo implementa InvoiceRepository devolviendo solo lo que el
// motor de liquidaciones consulta.
type stubInvoiceRepo struct {
	paid  []*entity.Invoice
	pairs []repository.OwnerPeriod
}

func (s *stubInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error { return nil }
func (s *stubInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) NextSequence(ctx context.Context, ownerID string, year int) (int64, error) {
	return 1, nil
}
func (s *stubInvoiceRepo) FindDueSoon(ctx context.Context, from, to time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) FindOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]*entity.Invoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) FindLateFeeCandidates(ctx context.Context) ([]*entity.Invoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) ApplyLateFee(ctx context.Context, invoiceID string, fee decimal.Decimal) (bool, error) {
	return false, nil
}
func (s *stubInvoiceRepo) SetCAE(ctx context.Context, invoiceID, cae string, expiry time.Time) error {
	return nil
}
func (s *stubInvoiceRepo) RegisterPayment(ctx context.Context, invoiceID string, amount decimal.Decimal, paidAt time.Time) error {
	return nil
}
func (s *stubInvoiceRepo) FindPaidInPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	return s.paid, nil
}
func (s *stubInvoiceRepo) ListByOwnerPeriod(ctx context.Context, ownerID string, periodStart, periodEnd time.Time) ([]*entity.Invoice, error) {
	return s.paid, nil
}
func (s *stubInvoiceRepo) ListSettleablePairs(ctx context.Context, asOf time.Time) ([]repository.OwnerPeriod, error) {
	return s.pairs, nil
}

type fakeSettlementRepo struct {
	existing *entity.Settlement
	upserted []*entity.Settlement
	results  []*entity.Settlement
}

func (f *fakeSettlementRepo) GetByOwnerPeriod(ctx context.Context, ownerID, period string) (*entity.Settlement, error) {
	return f.existing, nil
}

func (f *fakeSettlementRepo) Upsert(ctx context.Context, s *entity.Settlement) error {
	snapshot := *s
	f.upserted = append(f.upserted, &snapshot)
	return nil
}

func (f *fakeSettlementRepo) SetResult(ctx context.Context, s *entity.Settlement) error {
	snapshot := *s
	f.results = append(f.results, &snapshot)
	return nil
}

func (f *fakeSettlementRepo) List(ctx context.Context, period string, limit int) ([]*entity.Settlement, error) {
	return nil, nil
}

type fakeOwnerRepo struct {
	owner *entity.Owner
	hits  int
}

func (f *fakeOwnerRepo) GetByID(ctx context.Context, id string) (*entity.Owner, error) {
	f.hits++
	return f.owner, nil
}

type fakeCompanyRepo struct{ company *entity.Company }

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	return f.company, nil
}

type fakePayout struct {
	reference string
	err       error
	hits      int
}

func (f *fakePayout) InitiateTransfer(ctx context.Context, owner *entity.Owner, amount decimal.Decimal, currency, period string) (*settlement.PayoutResult, error) {
	f.hits++
	if f.err != nil {
		return nil, f.err
	}
	return &settlement.PayoutResult{Reference: f.reference}, nil
}

type fakeNotifier struct{ notices int }

func (f *fakeNotifier) SendSettlementNotice(ctx context.Context, owner *entity.Owner, s *entity.Settlement) error {
	f.notices++
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func paidInvoice(total string, paidAt, dueDate time.Time) *entity.Invoice {
	return &entity.Invoice{
		Total:   decimal.RequireFromString(total),
		Status:  entity.InvoiceStatusPaid,
		PaidAt:  &paidAt,
		DueDate: dueDate,
	}
}

type engineDeps struct {
	invoices    *stubInvoiceRepo
	settlements *fakeSettlementRepo
	owners      *fakeOwnerRepo
	payout      *fakePayout
	notifier    *fakeNotifier
}

func newEngine(t *testing.T, owner *entity.Owner, deps *engineDeps) *settlement.Engine {
	t.Helper()
	if deps.invoices == nil {
		deps.invoices = &stubInvoiceRepo{}
	}
	if deps.settlements == nil {
		deps.settlements = &fakeSettlementRepo{}
	}
	if deps.payout == nil {
		deps.payout = &fakePayout{reference: "TRF-001"}
	}
	if deps.notifier == nil {
		deps.notifier = &fakeNotifier{}
	}
	deps.owners = &fakeOwnerRepo{owner: owner}
	company := &entity.Company{ID: "c1", CommissionRate: decimal.NewFromInt(10)}
	return settlement.NewEngine(
		deps.invoices, deps.settlements,
		deps.owners, &fakeCompanyRepo{company: company},
		deps.payout, deps.notifier,
		settlement.Config{DefaultCommissionRate: decimal.NewFromInt(8), BaseCurrency: "ARS"},
		testLogger(),
	)
}

func ownerWithRate(rate string) *entity.Owner {
	r := decimal.RequireFromString(rate)
	return &entity.Owner{ID: "o1", CompanyID: "c1", CommissionRate: &r, CBU: "0000003100010000000001"}
}

// TestCalculateSettlement_MontosYFecha bruto = suma de facturas pagas,
// comisión con la tasa del propietario, y fecha programada = máxima candidata.
//
// Factura A pagada el 10/12 (vence 15/12) -> candidata 15/12; factura B
// pagada el 18/12 (vencía 12/12) -> candidata 18/12. La liquidación queda
// programada para el 18/12.
func TestCalculateSettlement_MontosYFecha(t *testing.T) {
	deps := &engineDeps{invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
		paidInvoice("100000", day(2024, time.December, 10), day(2024, time.December, 15)),
		paidInvoice("50000", day(2024, time.December, 18), day(2024, time.December, 12)),
	}}}
	engine := newEngine(t, ownerWithRate("10"), deps)

	calc, err := engine.CalculateSettlement(context.Background(), "o1", "2024-12")
	require.NoError(t, err)

	s := calc.Settlement
	assert.Equal(t, 2, calc.InvoiceCount)
	assert.Equal(t, "150000.00", s.GrossAmount.StringFixed(2))
	assert.Equal(t, "15000.00", s.CommissionAmount.StringFixed(2))
	assert.Equal(t, "135000.00", s.NetAmount.StringFixed(2))
	assert.Equal(t, day(2024, time.December, 18), s.ScheduledDate)
	assert.Equal(t, entity.SettlementStatusPending, s.Status)
}

// TestCalculateSettlement_ComisionEnCascada sin tasa del propietario se usa
// la de la empresa; sin ninguna, el default de configuración.
func TestCalculateSettlement_ComisionEnCascada(t *testing.T) {
	deps := &engineDeps{invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
		paidInvoice("100000", day(2025, time.July, 12), day(2025, time.July, 11)),
	}}}
	owner := &entity.Owner{ID: "o1", CompanyID: "c1"} // sin tasa propia
	engine := newEngine(t, owner, deps)

	calc, err := engine.CalculateSettlement(context.Background(), "o1", "2025-07")
	require.NoError(t, err)
	assert.Equal(t, "10", calc.Rate.String(), "cae en la tasa de la empresa")
	assert.Equal(t, "10000.00", calc.Commission.StringFixed(2))
}

// TestProcessSettlement_SinFacturas sin facturas cobradas el procesamiento es
// éxito sin efectos: no se persiste ni se transfiere.
func TestProcessSettlement_SinFacturas(t *testing.T) {
	deps := &engineDeps{}
	engine := newEngine(t, ownerWithRate("10"), deps)

	res, err := engine.ProcessSettlement(context.Background(), "o1", "2025-07", false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, deps.settlements.upserted)
	assert.Equal(t, 0, deps.payout.hits)
}

// TestProcessSettlement_YaCompletada una liquidación completed para el par
// (propietario, período) no se reprocesa: corto circuito idempotente sin
// re-invocar el payout.
func TestProcessSettlement_YaCompletada(t *testing.T) {
	deps := &engineDeps{
		invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
			paidInvoice("100000", day(2025, time.July, 12), day(2025, time.July, 11)),
		}},
		settlements: &fakeSettlementRepo{existing: &entity.Settlement{
			ID: "s-existente", Status: entity.SettlementStatusCompleted,
		}},
	}
	engine := newEngine(t, ownerWithRate("10"), deps)

	res, err := engine.ProcessSettlement(context.Background(), "o1", "2025-07", false)
	require.NoError(t, err)
	assert.Equal(t, "s-existente", res.SettlementID)
	assert.Equal(t, entity.SettlementStatusCompleted, res.Status)
	assert.Equal(t, 0, deps.payout.hits, "el payout no debe re-invocarse")
	assert.Empty(t, deps.settlements.upserted)
}

// TestProcessSettlement_DryRun calcula pero no persiste ni transfiere.
func TestProcessSettlement_DryRun(t *testing.T) {
	deps := &engineDeps{invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
		paidInvoice("100000", day(2025, time.July, 12), day(2025, time.July, 11)),
	}}}
	engine := newEngine(t, ownerWithRate("10"), deps)

	res, err := engine.ProcessSettlement(context.Background(), "o1", "2025-07", true)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Empty(t, deps.settlements.upserted)
	assert.Equal(t, 0, deps.payout.hits)
}

// TestProcessSettlement_Exitosa camino feliz: upsert en processing, payout,
// y asiento completed con la referencia de transferencia más el aviso.
func TestProcessSettlement_Exitosa(t *testing.T) {
	deps := &engineDeps{invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
		paidInvoice("200000", day(2025, time.July, 12), day(2025, time.July, 11)),
	}}}
	engine := newEngine(t, ownerWithRate("10"), deps)

	res, err := engine.ProcessSettlement(context.Background(), "o1", "2025-07", false)
	require.NoError(t, err)
	assert.Equal(t, entity.SettlementStatusCompleted, res.Status)
	assert.NotEmpty(t, res.SettlementID)

	require.Len(t, deps.settlements.upserted, 1)
	assert.Equal(t, entity.SettlementStatusProcessing, deps.settlements.upserted[0].Status)

	require.Len(t, deps.settlements.results, 1)
	final := deps.settlements.results[0]
	assert.Equal(t, entity.SettlementStatusCompleted, final.Status)
	assert.Equal(t, "TRF-001", final.TransferReference)
	assert.Equal(t, "180000.00", final.NetAmount.StringFixed(2))
	require.NotNil(t, final.ProcessedAt)

	assert.Equal(t, 1, deps.notifier.notices)
	assert.Equal(t, 1, deps.owners.hits,
		"el propietario se carga una sola vez, en el cálculo, y el payout lo reutiliza")
}

// TestProcessSettlement_PayoutFallido la falla de la transferencia asienta la
// liquidación como failed (con la causa en notes) y devuelve el error. El
// retry re-transiciona la misma fila.
func TestProcessSettlement_PayoutFallido(t *testing.T) {
	deps := &engineDeps{
		invoices: &stubInvoiceRepo{paid: []*entity.Invoice{
			paidInvoice("100000", day(2025, time.July, 12), day(2025, time.July, 11)),
		}},
		payout: &fakePayout{err: errors.New("banco no disponible")},
	}
	engine := newEngine(t, ownerWithRate("10"), deps)

	res, err := engine.ProcessSettlement(context.Background(), "o1", "2025-07", false)
	require.Error(t, err)
	assert.Equal(t, entity.SettlementStatusFailed, res.Status)

	require.Len(t, deps.settlements.results, 1)
	final := deps.settlements.results[0]
	assert.Equal(t, entity.SettlementStatusFailed, final.Status)
	assert.Contains(t, final.Notes, "banco no disponible")
	assert.Empty(t, final.TransferReference)
	assert.Equal(t, 0, deps.notifier.notices, "sin aviso ante payout fallido")
}

// TestGetPendingSettlements delega en la consulta de pares liquidables.
func TestGetPendingSettlements(t *testing.T) {
	deps := &engineDeps{invoices: &stubInvoiceRepo{pairs: []repository.OwnerPeriod{
		{OwnerID: "o1", Period: "2025-06"},
		{OwnerID: "o2", Period: "2025-07"},
	}}}
	engine := newEngine(t, ownerWithRate("10"), deps)

	pairs, err := engine.GetPendingSettlements(context.Background())
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}
