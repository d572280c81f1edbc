package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	domainbilling "github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Config parámetros de negocio del motor de liquidaciones.
type Config struct {
	DefaultCommissionRate decimal.Decimal // % si ni propietario ni empresa definen una
	BaseCurrency          string
}

// Calculation liquidación calculada (todavía no persistida).
type Calculation struct {
	Settlement   *entity.Settlement
	Owner        *entity.Owner
	InvoiceCount int
	Commission   decimal.Decimal
	Rate         decimal.Decimal
}

// ProcessResult resultado de procesar una liquidación.
type ProcessResult struct {
	SettlementID string
	Status       string
	Skipped      bool // sin facturas cobradas o neto <= 0: éxito sin efectos
}

// Engine agrega las facturas cobradas de un propietario por período, deduce
// comisión y retenciones, aplica la regla de fecha programada y maneja el
// payout. La fila de liquidación nunca se borra, solo re-transiciona.
type Engine struct {
	invoices    repository.InvoiceRepository
	settlements repository.SettlementRepository
	owners      repository.OwnerRepository
	companies   repository.CompanyRepository
	payouts     PayoutClient
	notifier    Notifier
	cfg         Config
	log         *logger.Logger
	now         func() time.Time
}

// NewEngine construye el motor. notifier puede ser nil.
func NewEngine(
	invoices repository.InvoiceRepository,
	settlements repository.SettlementRepository,
	owners repository.OwnerRepository,
	companies repository.CompanyRepository,
	payouts PayoutClient,
	notifier Notifier,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		invoices:    invoices,
		settlements: settlements,
		owners:      owners,
		companies:   companies,
		payouts:     payouts,
		notifier:    notifier,
		cfg:         cfg,
		log:         log.WithComponent("settlements"),
		now:         time.Now,
	}
}

// CalculateSettlement calcula la liquidación del propietario para el período
// YYYY-MM: bruto = suma de facturas pagas del mes, comisión = bruto * tasa,
// neto = bruto - comisión - retenciones (hoy solo comisión; extensible).
//
// Fecha programada: por factura, si el pago fue estrictamente anterior al
// vencimiento la candidata es el vencimiento, si no el propio pago; la fecha
// de la liquidación es la MÁXIMA de las candidatas. Sin facturas, el último
// día calendario del período.
func (e *Engine) CalculateSettlement(ctx context.Context, ownerID, period string) (*Calculation, error) {
	periodStart, err := domainbilling.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	periodEnd := periodStart.AddDate(0, 1, -1)

	owner, err := e.owners.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("cargar propietario: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("propietario %s: %w", ownerID, domain.ErrNotFound)
	}

	rate, err := e.commissionRate(ctx, owner)
	if err != nil {
		return nil, err
	}

	invoices, err := e.invoices.FindPaidInPeriod(ctx, ownerID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("facturas pagas del período: %w", err)
	}

	gross := decimal.Zero
	var candidates []time.Time
	for _, inv := range invoices {
		gross = gross.Add(inv.Total)
		if inv.PaidAt != nil {
			candidates = append(candidates, domainbilling.SettlementCandidateDate(*inv.PaidAt, inv.DueDate))
		}
	}

	commission := domainbilling.Percentage(gross, rate)
	// Deducciones adicionales (retenciones propias de la liquidación): por
	// ahora la única deducción es la comisión.
	withholdings := decimal.Zero
	net := gross.Sub(commission).Sub(withholdings)

	scheduled := domainbilling.SettlementScheduledDate(candidates, periodEnd)

	return &Calculation{
		Settlement: &entity.Settlement{
			OwnerID:            ownerID,
			Period:             period,
			GrossAmount:        gross,
			CommissionAmount:   commission,
			WithholdingsAmount: withholdings,
			NetAmount:          net,
			Currency:           e.cfg.BaseCurrency,
			Status:             entity.SettlementStatusPending,
			ScheduledDate:      scheduled,
		},
		Owner:        owner,
		InvoiceCount: len(invoices),
		Commission:   commission,
		Rate:         rate,
	}, nil
}

// ProcessSettlement recalcula y ejecuta la liquidación.
//
//   - Sin facturas o neto <= 0: éxito sin efectos.
//   - Liquidación ya completed para (owner, period): corto circuito
//     idempotente, devuelve el id existente sin re-invocar el payout.
//   - Si no: upsertea la fila en processing, inicia la transferencia y asienta
//     completed + referencia, o failed + error. El retry re-transiciona la
//     misma fila.
func (e *Engine) ProcessSettlement(ctx context.Context, ownerID, period string, dryRun bool) (*ProcessResult, error) {
	calc, err := e.CalculateSettlement(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}

	if calc.InvoiceCount == 0 || !calc.Settlement.NetAmount.GreaterThan(decimal.Zero) {
		e.log.Info().
			Str("owner_id", ownerID).
			Str("period", period).
			Int("invoices", calc.InvoiceCount).
			Msg("nada que liquidar")
		return &ProcessResult{Skipped: true}, nil
	}

	existing, err := e.settlements.GetByOwnerPeriod(ctx, ownerID, period)
	if err != nil {
		return nil, fmt.Errorf("buscar liquidación existente: %w", err)
	}
	if existing != nil && existing.Status == entity.SettlementStatusCompleted {
		e.log.Info().
			Str("settlement_id", existing.ID).
			Str("period", period).
			Msg("liquidación ya completada, sin reprocesar")
		return &ProcessResult{SettlementID: existing.ID, Status: existing.Status}, nil
	}

	if dryRun {
		e.log.Info().
			Str("owner_id", ownerID).
			Str("period", period).
			Str("net", calc.Settlement.NetAmount.StringFixed(2)).
			Msg("dry-run: liquidación calculada, sin persistir ni transferir")
		return &ProcessResult{Status: entity.SettlementStatusPending, Skipped: false}, nil
	}

	s := calc.Settlement
	if existing != nil {
		s.ID = existing.ID
	} else {
		s.ID = uuid.New().String()
	}
	s.Status = entity.SettlementStatusProcessing
	if err := e.settlements.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("upsert de liquidación: %w", err)
	}

	// El propietario ya viene cargado (y validado no nil) del cálculo.
	payout, perr := e.payouts.InitiateTransfer(ctx, calc.Owner, s.NetAmount, s.Currency, period)
	processedAt := e.now().UTC()
	s.ProcessedAt = &processedAt
	if perr != nil {
		s.Status = entity.SettlementStatusFailed
		s.Notes = perr.Error()
		if err := e.settlements.SetResult(ctx, s); err != nil {
			return nil, fmt.Errorf("asentar falla de payout: %w", err)
		}
		return &ProcessResult{SettlementID: s.ID, Status: s.Status}, fmt.Errorf("payout de %s/%s: %w", ownerID, period, perr)
	}

	s.Status = entity.SettlementStatusCompleted
	s.TransferReference = payout.Reference
	if err := e.settlements.SetResult(ctx, s); err != nil {
		return nil, fmt.Errorf("asentar liquidación completada: %w", err)
	}

	if e.notifier != nil {
		if err := e.notifier.SendSettlementNotice(ctx, calc.Owner, s); err != nil {
			e.log.Warn().Err(err).Str("settlement_id", s.ID).Msg("aviso de liquidación falló")
		}
	}

	e.log.Info().
		Str("settlement_id", s.ID).
		Str("reference", payout.Reference).
		Str("net", s.NetAmount.StringFixed(2)).
		Msg("liquidación completada")
	return &ProcessResult{SettlementID: s.ID, Status: s.Status}, nil
}

// GetPendingSettlements pares (propietario, período) con facturas cobradas
// sin liquidar cuya fecha aplicable ya llegó: la consulta disparadora de las
// corridas programadas.
func (e *Engine) GetPendingSettlements(ctx context.Context) ([]repository.OwnerPeriod, error) {
	return e.invoices.ListSettleablePairs(ctx, domainbilling.TruncateDay(e.now()))
}

func (e *Engine) commissionRate(ctx context.Context, owner *entity.Owner) (decimal.Decimal, error) {
	if owner.CommissionRate != nil && owner.CommissionRate.GreaterThan(decimal.Zero) {
		return *owner.CommissionRate, nil
	}
	company, err := e.companies.GetByID(ctx, owner.CompanyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cargar empresa para comisión: %w", err)
	}
	if company != nil && company.CommissionRate.GreaterThan(decimal.Zero) {
		return company.CommissionRate, nil
	}
	return e.cfg.DefaultCommissionRate, nil
}
