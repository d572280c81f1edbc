package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RatePoint cotización cruda devuelta por una fuente externa.
type RatePoint struct {
	From   string
	To     string
	Rate   decimal.Decimal
	Date   time.Time
	Source string
}

// RateSource puerto de salida hacia una autoridad de cotizaciones.
// Cada implementación cubre un subconjunto de pares: el BCRA los pares contra
// ARS, AwesomeAPI el par USD/BRL.
type RateSource interface {
	Name() string
	Supports(from, to string) bool
	// FetchRate cotización vigente para el par a la fecha dada.
	FetchRate(ctx context.Context, from, to string, date time.Time) (*RatePoint, error)
	// FetchRange serie diaria del par en la ventana [start, end].
	FetchRange(ctx context.Context, from, to string, start, end time.Time) ([]*RatePoint, error)
}
