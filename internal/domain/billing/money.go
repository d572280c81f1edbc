package billing

import "github.com/shopspring/decimal"

// RoundCents redondea un importe a 2 decimales con redondeo comercial
// (mitad hacia arriba sobre el centavo).
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percentage calcula amount * rate / 100 redondeado a centavos.
// Es la operación base de comisiones, retenciones y punitorios.
func Percentage(amount, rate decimal.Decimal) decimal.Decimal {
	return RoundCents(amount.Mul(rate).Div(decimal.NewFromInt(100)))
}
