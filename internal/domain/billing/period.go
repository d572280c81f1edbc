package billing

import (
	"fmt"
	"time"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// TruncateDay trunca un instante a la medianoche UTC de su fecha.
// Todas las comparaciones de fechas del motor se hacen sobre días truncados.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodBounds devuelve el primer y último día del mes calendario que
// contiene la fecha de facturación (el período que cubre la factura).
func PeriodBounds(billingDate time.Time) (start, end time.Time) {
	start = time.Date(billingDate.Year(), billingDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// PeriodKey formatea un mes como YYYY-MM (clave de liquidaciones).
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// ParsePeriod interpreta una clave YYYY-MM y devuelve el primer día del mes.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, fmt.Errorf("período inválido %q: %w", period, err)
	}
	return t.UTC(), nil
}

// LastDayOfPeriod último día calendario de un período YYYY-MM.
func LastDayOfPeriod(period string) (time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 1, -1), nil
}

// NextBillingDate avanza la fecha de próxima facturación según la frecuencia
// de pago del contrato. Frecuencia desconocida se trata como mensual.
func NextBillingDate(from time.Time, frequency string) time.Time {
	switch frequency {
	case entity.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case entity.FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// DueDate vencimiento de la factura: fecha de facturación más los días de
// gracia configurados por la empresa.
func DueDate(billingDate time.Time, graceDays int) time.Time {
	return TruncateDay(billingDate).AddDate(0, 0, graceDays)
}
