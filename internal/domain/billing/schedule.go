package billing

import "time"

// SettlementCandidateDate regla de fecha de liquidación por factura:
//   - pago estrictamente anterior al vencimiento -> la fecha candidata es el
//     vencimiento (el dinero recién se libera al propietario cuando vence);
//   - pago en o después del vencimiento -> la fecha candidata es el propio
//     pago (se liquida el mismo día).
func SettlementCandidateDate(paidAt, dueDate time.Time) time.Time {
	if TruncateDay(paidAt).Before(TruncateDay(dueDate)) {
		return TruncateDay(dueDate)
	}
	return TruncateDay(paidAt)
}

// SettlementScheduledDate fecha programada de la liquidación completa: el
// máximo de las fechas candidatas de todas las facturas. La liquidación se
// difiere deliberadamente hasta la fecha aplicable de la última factura.
// Con lista vacía devuelve fallback (último día del período).
func SettlementScheduledDate(candidates []time.Time, fallback time.Time) time.Time {
	if len(candidates) == 0 {
		return TruncateDay(fallback)
	}
	latest := candidates[0]
	for _, c := range candidates[1:] {
		if c.After(latest) {
			latest = c
		}
	}
	return TruncateDay(latest)
}
