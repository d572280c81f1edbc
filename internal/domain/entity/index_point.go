package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de índice de ajuste de alquiler soportados.
const (
	IndexTypeICL  = "icl"  // Índice de Contratos de Locación (BCRA, Argentina)
	IndexTypeIGPM = "igpm" // Índice Geral de Preços - Mercado (FGV/BCB, Brasil)
	IndexTypeIPC  = "ipc"  // Índice de Precios al Consumidor (INDEC vía BCRA)
)

// InflationIndexPoint un punto de una serie de índice, normalizado al primer
// día del mes. Invariante: a lo sumo un punto por (IndexType, PeriodDate);
// el re-sync sobreescribe el valor pero conserva la clave del período.
type InflationIndexPoint struct {
	ID          string
	IndexType   string
	PeriodDate  time.Time
	Value       decimal.Decimal
	Source      string
	SourceURL   string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizePeriod trunca una fecha al primer día de su mes (UTC).
func NormalizePeriod(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
