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

var _ repository.ExchangeRateRepository = (*ExchangeRateRepo)(nil)

// ExchangeRateRepo implementación de ExchangeRateRepository sobre PostgreSQL.
type ExchangeRateRepo struct {
	q Querier
}

// NewExchangeRateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExchangeRateRepository(q Querier) *ExchangeRateRepo {
	return &ExchangeRateRepo{q: q}
}

// Upsert inserta o actualiza por la clave natural (from, to, rate_date, source).
func (r *ExchangeRateRepo) Upsert(ctx context.Context, rate *entity.ExchangeRate) error {
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO exchange_rates
			(id, from_currency, to_currency, rate, rate_date, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (from_currency, to_currency, rate_date, source) DO UPDATE
		SET rate = EXCLUDED.rate`
	_, err := r.q.Exec(ctx, query,
		rate.ID, rate.FromCurrency, rate.ToCurrency, rate.Rate, rate.RateDate, rate.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert exchange_rate: %w", err)
	}
	return nil
}

// GetLatestAtOrBefore cotización más reciente del par con rate_date <= date.
func (r *ExchangeRateRepo) GetLatestAtOrBefore(ctx context.Context, from, to string, date time.Time) (*entity.ExchangeRate, error) {
	const query = `
		SELECT id, from_currency, to_currency, rate, rate_date, source, created_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND rate_date <= $3
		ORDER BY rate_date DESC
		LIMIT 1`
	var er entity.ExchangeRate
	err := r.q.QueryRow(ctx, query, from, to, date).Scan(
		&er.ID, &er.FromCurrency, &er.ToCurrency, &er.Rate, &er.RateDate, &er.Source, &er.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get exchange_rate: %w", err)
	}
	return &er, nil
}
