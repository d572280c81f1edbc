package indices

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// IndexValue punto crudo de una serie de índice devuelto por una fuente.
type IndexValue struct {
	Period      time.Time
	Value       decimal.Decimal
	SourceURL   string
	PublishedAt *time.Time
}

// IndexSource puerto de salida hacia una autoridad estadística. Cada
// implementación cubre una serie: BCRA para ICL e IPC (REST), el SGS del
// Banco Central do Brasil para IGP-M (SOAP). Solo fetch y parseo, sin
// lógica de negocio.
type IndexSource interface {
	Name() string
	IndexType() string
	// ReportsVariation indica si la serie publica variaciones mensuales (%)
	// en lugar de niveles de índice. El syncer encadena las variaciones a
	// nivel al ingerirlas: la tabla de índices siempre guarda niveles.
	ReportsVariation() bool
	// FetchSeries puntos de la serie dentro de la ventana [start, end].
	FetchSeries(ctx context.Context, start, end time.Time) ([]*IndexValue, error)
}
