package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithholdingConfig configuración tipada de agente de retención a nivel
// empresa. Reemplaza la bolsa de claves dinámicas del esquema histórico:
// la migración de nombres legados ocurre en la capa de persistencia, el
// resto del motor solo ve este struct.
type WithholdingConfig struct {
	IsWithholdingAgent    bool
	IIBBRate              decimal.Decimal
	IIBBJurisdiction      string
	IVARate               decimal.Decimal
	GananciasRate         decimal.Decimal
	GananciasMinThreshold decimal.Decimal
}

// Company inmobiliaria administradora (entidad externa, solo lectura).
type Company struct {
	ID               string
	Name             string
	CUIT             string
	BaseCurrency     string
	Withholding      WithholdingConfig
	CommissionRate   decimal.Decimal // % por defecto si el propietario no define uno
	LateFeeRate      decimal.Decimal // % punitorio por defecto
	BillingGraceDays int             // días entre emisión y vencimiento
	CreatedAt        time.Time
}
