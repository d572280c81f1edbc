package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Monedas soportadas por el motor (conjunto fijo y pequeño).
const (
	CurrencyARS = "ARS"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyBRL = "BRL"
)

// SupportedCurrencies lista cerrada de monedas que el motor convierte.
var SupportedCurrencies = []string{CurrencyARS, CurrencyUSD, CurrencyEUR, CurrencyBRL}

// ExchangeRate cotización persistida que actúa de caché frente a las fuentes
// externas. Invariante: una fila por (From, To, RateDate, Source).
type ExchangeRate struct {
	ID           string
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	RateDate     time.Time
	Source       string
	CreatedAt    time.Time
}

// IsSupportedCurrency indica si el código pertenece al conjunto soportado.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
