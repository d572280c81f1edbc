package adjustment

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Result resultado del cálculo de ajuste de un contrato.
type Result struct {
	OriginalAmount    decimal.Decimal
	AdjustedAmount    decimal.Decimal
	AdjustmentRate    decimal.Decimal // variación % aplicada
	IndexType         string
	BaseIndexValue    *decimal.Decimal
	CurrentIndexValue *decimal.Decimal
	Applied           bool
}

// Calculator calcula el alquiler ajustado de un ciclo a partir de la
// configuración del contrato y la serie de índices persistida.
type Calculator struct {
	indexes repository.IndexRepository
	log     *logger.Logger
	now     func() time.Time
}

// NewCalculator construye el calculador de ajustes.
func NewCalculator(indexes repository.IndexRepository, log *logger.Logger) *Calculator {
	return &Calculator{
		indexes: indexes,
		log:     log.WithComponent("adjustment"),
		now:     time.Now,
	}
}

// ShouldApplyAdjustment indica si corresponde ajustar en esta corrida: hay un
// tipo de ajuste configurado (fixed o por índice), next_adjustment_date está
// fijada y ya llegó (comparación por día truncado).
func (c *Calculator) ShouldApplyAdjustment(lease *entity.Lease, today time.Time) bool {
	if lease.AdjustmentType == "" || lease.AdjustmentType == entity.AdjustmentNone {
		return false
	}
	if lease.NextAdjustmentDate == nil {
		return false
	}
	next := billing.TruncateDay(*lease.NextAdjustmentDate)
	return !next.After(billing.TruncateDay(today))
}

// CalculateAdjustedRent calcula el alquiler ajustado según el tipo configurado.
//
//   - none o sin tipo: monto original, tasa 0.
//   - fixed: original * (1 + adjustment_rate/100).
//   - icl/igpm/ipc: variación entre el último punto publicado y el punto base
//     (último punto <= primer día del mes de last_adjustment_date, o de hoy si
//     no hay fecha). Si falta cualquiera de los dos puntos se loguea warning y
//     se devuelve el monto SIN ajustar: el ajuste es fail-open, nunca bloquea
//     la facturación.
func (c *Calculator) CalculateAdjustedRent(ctx context.Context, lease *entity.Lease) (*Result, error) {
	res := &Result{
		OriginalAmount: lease.RentAmount,
		AdjustedAmount: lease.RentAmount,
		AdjustmentRate: decimal.Zero,
		IndexType:      lease.AdjustmentType,
	}

	switch {
	case lease.AdjustmentType == "" || lease.AdjustmentType == entity.AdjustmentNone:
		return res, nil

	case lease.AdjustmentType == entity.AdjustmentFixed:
		res.AdjustmentRate = lease.AdjustmentRate
		res.AdjustedAmount = c.applyRate(lease.RentAmount, lease.AdjustmentRate)
		res.Applied = true
		return res, nil

	case lease.HasIndexAdjustment():
		return c.calculateIndexed(ctx, lease, res)

	default:
		return nil, fmt.Errorf("tipo de ajuste desconocido %q en contrato %s", lease.AdjustmentType, lease.ID)
	}
}

func (c *Calculator) calculateIndexed(ctx context.Context, lease *entity.Lease, res *Result) (*Result, error) {
	current, err := c.indexes.GetLatest(ctx, lease.AdjustmentType)
	if err != nil {
		return nil, fmt.Errorf("último índice %s: %w", lease.AdjustmentType, err)
	}

	// Base: último punto a o antes del primer día del mes del último ajuste
	// (o de hoy si el contrato nunca ajustó).
	baseRef := c.now()
	if lease.LastAdjustmentDate != nil {
		baseRef = *lease.LastAdjustmentDate
	}
	basePeriod := entity.NormalizePeriod(baseRef)
	base, err := c.indexes.GetLatestAtOrBefore(ctx, lease.AdjustmentType, basePeriod)
	if err != nil {
		return nil, fmt.Errorf("índice base %s: %w", lease.AdjustmentType, err)
	}

	if current == nil || base == nil || base.Value.IsZero() {
		c.log.Warn().
			Str("lease_id", lease.ID).
			Str("index_type", lease.AdjustmentType).
			Bool("current_missing", current == nil).
			Bool("base_missing", base == nil).
			Msg("índice sin datos, se factura sin ajuste")
		return res, nil
	}

	// Variación = (actual/base - 1) * 100
	ratio := current.Value.Div(base.Value)
	res.AdjustmentRate = ratio.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100))
	res.AdjustedAmount = billing.RoundCents(lease.RentAmount.Mul(ratio))
	res.BaseIndexValue = &base.Value
	res.CurrentIndexValue = &current.Value
	res.Applied = true
	return res, nil
}

func (c *Calculator) applyRate(amount, rate decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100)))
	return billing.RoundCents(amount.Mul(factor))
}
