package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.IndexRepository = (*IndexRepo)(nil)

// IndexRepo implementación de IndexRepository sobre PostgreSQL.
type IndexRepo struct {
	q Querier
}

// NewIndexRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIndexRepository(q Querier) *IndexRepo {
	return &IndexRepo{q: q}
}

// Upsert inserta o actualiza por la clave natural (index_type, period_date).
func (r *IndexRepo) Upsert(ctx context.Context, point *entity.InflationIndexPoint) error {
	if point.ID == "" {
		point.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO inflation_indices
			(id, index_type, period_date, value, source, source_url, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (index_type, period_date) DO UPDATE
		SET value        = EXCLUDED.value,
		    source       = EXCLUDED.source,
		    source_url   = EXCLUDED.source_url,
		    published_at = EXCLUDED.published_at,
		    updated_at   = now()`
	_, err := r.q.Exec(ctx, query,
		point.ID, point.IndexType, point.PeriodDate, point.Value,
		point.Source, nullIfEmpty(point.SourceURL), point.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert inflation_index: %w", err)
	}
	return nil
}

// GetLatest último punto publicado de la serie.
func (r *IndexRepo) GetLatest(ctx context.Context, indexType string) (*entity.InflationIndexPoint, error) {
	const query = selectIndexPoint + `
		WHERE index_type = $1
		ORDER BY period_date DESC
		LIMIT 1`
	return r.getOne(ctx, query, indexType)
}

// GetLatestAtOrBefore último punto con period_date <= period.
func (r *IndexRepo) GetLatestAtOrBefore(ctx context.Context, indexType string, period time.Time) (*entity.InflationIndexPoint, error) {
	const query = selectIndexPoint + `
		WHERE index_type = $1 AND period_date <= $2
		ORDER BY period_date DESC
		LIMIT 1`
	return r.getOne(ctx, query, indexType, period)
}

const selectIndexPoint = `
	SELECT id, index_type, period_date, value, source, COALESCE(source_url, ''),
	       published_at, created_at, updated_at
	FROM inflation_indices`

func (r *IndexRepo) getOne(ctx context.Context, query string, args ...any) (*entity.InflationIndexPoint, error) {
	var p entity.InflationIndexPoint
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.IndexType, &p.PeriodDate, &p.Value, &p.Source, &p.SourceURL,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inflation_index: %w", err)
	}
	return &p, nil
}
