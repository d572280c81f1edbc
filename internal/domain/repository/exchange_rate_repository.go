package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// ExchangeRateRepository puerto de persistencia/caché de cotizaciones.
type ExchangeRateRepository interface {
	// Upsert inserta o actualiza por (from, to, rate_date, source).
	Upsert(ctx context.Context, rate *entity.ExchangeRate) error
	// GetLatestAtOrBefore cotización más reciente del par con rate_date <= date.
	// Sin datos devuelve nil.
	GetLatestAtOrBefore(ctx context.Context, from, to string, date time.Time) (*entity.ExchangeRate, error)
}
