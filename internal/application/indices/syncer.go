package indices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// SyncAll valor del filtro que sincroniza todas las series configuradas.
const SyncAll = "all"

// SyncResult resumen de un sync de índices. La falla de una fuente se acumula
// y no aborta a las hermanas (falla parcial, no todo-o-nada).
type SyncResult struct {
	Synced  int
	PerType map[string]int
	Errors  []string
}

// Syncer refresca la tabla de índices desde las fuentes externas,
// normalizando cada punto al primer día del mes y upserteando por
// (index_type, period_date): el re-sync es idempotente.
type Syncer struct {
	repo       repository.IndexRepository
	sources    []IndexSource
	monthsBack int
	log        *logger.Logger
	now        func() time.Time
}

// NewSyncer construye el sincronizador con sus fuentes.
func NewSyncer(repo repository.IndexRepository, sources []IndexSource, monthsBack int, log *logger.Logger) *Syncer {
	if monthsBack <= 0 {
		monthsBack = 12
	}
	return &Syncer{
		repo:       repo,
		sources:    sources,
		monthsBack: monthsBack,
		log:        log.WithComponent("sync_indices"),
		now:        time.Now,
	}
}

// Sync refresca las series. which filtra por tipo (icl, igpm, ipc) o SyncAll.
func (s *Syncer) Sync(ctx context.Context, which string) *SyncResult {
	result := &SyncResult{PerType: make(map[string]int)}
	end := s.now().UTC()
	start := end.AddDate(0, -s.monthsBack, 0)

	for _, src := range s.sources {
		if which != SyncAll && which != "" && src.IndexType() != which {
			continue
		}
		values, err := src.FetchSeries(ctx, start, end)
		if err != nil {
			s.log.Error().Err(err).
				Str("index_type", src.IndexType()).
				Str("source", src.Name()).
				Msg("fetch de serie falló")
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", src.IndexType(), src.Name(), err))
			continue
		}
		if src.ReportsVariation() {
			values, err = s.chainVariations(ctx, src.IndexType(), values)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", src.IndexType(), src.Name(), err))
				continue
			}
		}
		for _, v := range values {
			point := &entity.InflationIndexPoint{
				IndexType:   src.IndexType(),
				PeriodDate:  entity.NormalizePeriod(v.Period),
				Value:       v.Value,
				Source:      src.Name(),
				SourceURL:   v.SourceURL,
				PublishedAt: v.PublishedAt,
			}
			if err := s.repo.Upsert(ctx, point); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("%s %s: %v", src.IndexType(), point.PeriodDate.Format("2006-01"), err))
				continue
			}
			result.Synced++
			result.PerType[src.IndexType()]++
		}
	}

	s.log.Info().
		Int("synced", result.Synced).
		Int("errors", len(result.Errors)).
		Msg("sync de índices finalizado")
	return result
}

// chainVariations convierte una serie de variaciones mensuales (%) en niveles
// de índice: cada punto se encadena sobre el nivel del mes anterior ya
// persistido, arrancando en 100 si la serie está vacía. El calculador de
// ajustes divide dos niveles almacenados, así que acá es el único lugar donde
// una variación puede entrar al sistema.
func (s *Syncer) chainVariations(ctx context.Context, indexType string, values []*IndexValue) ([]*IndexValue, error) {
	if len(values) == 0 {
		return values, nil
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Period.Before(values[j].Period) })

	firstPeriod := entity.NormalizePeriod(values[0].Period)
	prev, err := s.repo.GetLatestAtOrBefore(ctx, indexType, firstPeriod.AddDate(0, -1, 0))
	if err != nil {
		return nil, fmt.Errorf("nivel previo de %s: %w", indexType, err)
	}

	cien := decimal.NewFromInt(100)
	level := cien // base para una serie que arranca vacía
	if prev != nil {
		level = prev.Value
	}

	out := make([]*IndexValue, 0, len(values))
	for _, v := range values {
		factor := decimal.NewFromInt(1).Add(v.Value.Div(cien))
		level = level.Mul(factor).Round(4)
		out = append(out, &IndexValue{
			Period:      v.Period,
			Value:       level,
			SourceURL:   v.SourceURL,
			PublishedAt: v.PublishedAt,
		})
	}
	return out, nil
}
