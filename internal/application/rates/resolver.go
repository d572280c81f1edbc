package rates

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Pares que sincroniza el refresh completo.
var syncPairs = [][2]string{
	{entity.CurrencyUSD, entity.CurrencyARS},
	{entity.CurrencyEUR, entity.CurrencyARS},
	{entity.CurrencyBRL, entity.CurrencyARS},
	{entity.CurrencyUSD, entity.CurrencyBRL},
}

// Conversion resultado de una conversión de moneda.
type Conversion struct {
	Amount         decimal.Decimal
	Rate           decimal.Decimal
	OriginalAmount decimal.Decimal
	RateDate       time.Time
}

// SyncResult resumen de un refresh de cotizaciones (tolerante a fallas
// parciales: los errores por par no abortan a los hermanos).
type SyncResult struct {
	Synced int
	Errors []string
}

// Resolver resuelve cotizaciones cache-first: primero la tabla
// exchange_rates, recién ante un miss llama a la fuente externa y persiste
// el resultado.
type Resolver struct {
	repo    repository.ExchangeRateRepository
	sources []RateSource
	log     *logger.Logger
	now     func() time.Time
}

// NewResolver construye el resolver con sus fuentes en orden de preferencia.
func NewResolver(repo repository.ExchangeRateRepository, sources []RateSource, log *logger.Logger) *Resolver {
	return &Resolver{
		repo:    repo,
		sources: sources,
		log:     log.WithComponent("rates"),
		now:     time.Now,
	}
}

// GetRate devuelve la cotización del par a la fecha. Par idéntico -> 1.
// Busca primero la cotización cacheada más reciente con rate_date <= date;
// ante un miss consulta la fuente externa que soporte el par (directo o
// inverso por recíproco) y upsertea antes de devolver.
func (r *Resolver) GetRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	conv, err := r.resolve(ctx, from, to, date)
	if err != nil {
		return decimal.Zero, err
	}
	return conv.Rate, nil
}

// ConvertAmount convierte un importe entre monedas a la fecha dada,
// redondeado a 2 decimales (mitad hacia arriba sobre el centavo).
func (r *Resolver) ConvertAmount(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) (*Conversion, error) {
	if from == to {
		return &Conversion{
			Amount:         amount,
			Rate:           decimal.NewFromInt(1),
			OriginalAmount: amount,
			RateDate:       billing.TruncateDay(date),
		}, nil
	}
	conv, err := r.resolve(ctx, from, to, date)
	if err != nil {
		return nil, err
	}
	conv.OriginalAmount = amount
	conv.Amount = billing.RoundCents(amount.Mul(conv.Rate))
	return conv, nil
}

// SyncRates refresh best-effort de todos los pares soportados para el mes
// corrido. Cada punto se upsertea por (from, to, date, source); el error de
// un par se acumula y no frena a los demás.
func (r *Resolver) SyncRates(ctx context.Context) *SyncResult {
	result := &SyncResult{}
	end := billing.TruncateDay(r.now())
	start := end.AddDate(0, -1, 0)

	for _, pair := range syncPairs {
		from, to := pair[0], pair[1]
		src := r.sourceFor(from, to)
		if src == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: sin fuente configurada", from, to))
			continue
		}
		points, err := src.FetchRange(ctx, from, to, start, end)
		if err != nil {
			r.log.Error().Err(err).Str("pair", from+"/"+to).Str("source", src.Name()).
				Msg("sync de cotizaciones falló para el par")
			result.Errors = append(result.Errors, fmt.Sprintf("%s/%s: %v", from, to, err))
			continue
		}
		for _, p := range points {
			rate := &entity.ExchangeRate{
				FromCurrency: p.From,
				ToCurrency:   p.To,
				Rate:         p.Rate,
				RateDate:     billing.TruncateDay(p.Date),
				Source:       p.Source,
			}
			if err := r.repo.Upsert(ctx, rate); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s/%s %s: %v", from, to, p.Date.Format("2006-01-02"), err))
				continue
			}
			result.Synced++
		}
	}
	return result
}

func (r *Resolver) resolve(ctx context.Context, from, to string, date time.Time) (*Conversion, error) {
	if from == to {
		return &Conversion{Rate: decimal.NewFromInt(1), RateDate: billing.TruncateDay(date)}, nil
	}
	if !entity.IsSupportedCurrency(from) || !entity.IsSupportedCurrency(to) {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrMonedaNoSoportada, from, to)
	}
	day := billing.TruncateDay(date)

	// 1) Caché persistida.
	cached, err := r.repo.GetLatestAtOrBefore(ctx, from, to, day)
	if err != nil {
		return nil, fmt.Errorf("buscar cotización cacheada: %w", err)
	}
	if cached != nil {
		return &Conversion{Rate: cached.Rate, RateDate: cached.RateDate}, nil
	}

	// 2) Fuente externa, par directo o inverso.
	point, err := r.fetchExternal(ctx, from, to, day)
	if err != nil {
		return nil, err
	}

	rate := &entity.ExchangeRate{
		FromCurrency: point.From,
		ToCurrency:   point.To,
		Rate:         point.Rate,
		RateDate:     billing.TruncateDay(point.Date),
		Source:       point.Source,
	}
	if err := r.repo.Upsert(ctx, rate); err != nil {
		return nil, fmt.Errorf("cachear cotización: %w", err)
	}
	return &Conversion{Rate: rate.Rate, RateDate: rate.RateDate}, nil
}

func (r *Resolver) fetchExternal(ctx context.Context, from, to string, day time.Time) (*RatePoint, error) {
	if src := r.sourceFor(from, to); src != nil {
		point, err := src.FetchRate(ctx, from, to, day)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s (%s): %v", domain.ErrCotizacionNoDisponible, from, to, src.Name(), err)
		}
		return point, nil
	}

	// Par inverso: se persiste el recíproco con sufijo de fuente.
	if src := r.sourceFor(to, from); src != nil {
		point, err := src.FetchRate(ctx, to, from, day)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s (%s, inverso): %v", domain.ErrCotizacionNoDisponible, from, to, src.Name(), err)
		}
		if point.Rate.IsZero() {
			return nil, fmt.Errorf("%w: %s/%s cotización cero", domain.ErrCotizacionNoDisponible, from, to)
		}
		return &RatePoint{
			From:   from,
			To:     to,
			Rate:   decimal.NewFromInt(1).DivRound(point.Rate, 8),
			Date:   point.Date,
			Source: point.Source + "-inverso",
		}, nil
	}

	return nil, fmt.Errorf("%w: %s/%s sin fuente", domain.ErrCotizacionNoDisponible, from, to)
}

func (r *Resolver) sourceFor(from, to string) RateSource {
	for _, s := range r.sources {
		if s.Supports(from, to) {
			return s
		}
	}
	return nil
}
