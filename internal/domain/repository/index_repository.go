package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// IndexRepository puerto de persistencia de puntos de índice de ajuste.
type IndexRepository interface {
	// Upsert inserta o actualiza el punto por (index_type, period_date).
	// El re-sync sobreescribe el valor pero conserva la clave del período.
	Upsert(ctx context.Context, point *entity.InflationIndexPoint) error
	// GetLatest último punto publicado de la serie. Sin datos devuelve nil.
	GetLatest(ctx context.Context, indexType string) (*entity.InflationIndexPoint, error)
	// GetLatestAtOrBefore último punto con period_date <= period. Sin datos devuelve nil.
	GetLatestAtOrBefore(ctx context.Context, indexType string, period time.Time) (*entity.InflationIndexPoint, error)
}
