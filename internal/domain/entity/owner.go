package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner propietario de unidades (entidad externa, solo lectura). El motor usa
// su comisión pactada, exenciones fiscales y datos bancarios de payout.
type Owner struct {
	ID        string
	CompanyID string
	Name      string
	Email     string
	CUIT      string

	// CommissionRate % pactado; nil usa el default de la empresa.
	CommissionRate *decimal.Decimal

	// Exenciones por tipo de impuesto (certificados presentados).
	ExemptIIBB      bool
	ExemptIVA       bool
	ExemptGanancias bool

	// Destino de transferencias.
	BankAlias string
	CBU       string

	CreatedAt time.Time
}
