package withholding

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Tipos de impuesto retenibles.
const (
	TaxIIBB      = "iibb"
	TaxIVA       = "iva"
	TaxGanancias = "ganancias"
)

// Item línea del desglose de retenciones.
type Item struct {
	TaxType string
	Rate    decimal.Decimal
	Amount  decimal.Decimal
	Note    string
}

// Result retenciones calculadas para una factura.
type Result struct {
	IIBB      decimal.Decimal
	IVA       decimal.Decimal
	Ganancias decimal.Decimal
	Total     decimal.Decimal
	Breakdown []Item
}

// ZeroResult resultado sin retenciones (empresa no agente).
func ZeroResult() *Result {
	return &Result{
		IIBB:      decimal.Zero,
		IVA:       decimal.Zero,
		Ganancias: decimal.Zero,
		Total:     decimal.Zero,
	}
}

// Calculator calcula retenciones jurisdiccionales (IIBB, IVA, Ganancias)
// según la configuración fiscal de la empresa y las exenciones del
// propietario.
type Calculator struct {
	companies repository.CompanyRepository
	owners    repository.OwnerRepository
	log       *logger.Logger
}

// NewCalculator construye el calculador de retenciones.
func NewCalculator(companies repository.CompanyRepository, owners repository.OwnerRepository, log *logger.Logger) *Calculator {
	return &Calculator{
		companies: companies,
		owners:    owners,
		log:       log.WithComponent("withholding"),
	}
}

// CalculateWithholdings retenciones sobre un importe a pagar al propietario.
// Empresa no agente de retención -> todo en cero. Por cada impuesto con tasa
// configurada > 0 y propietario no exento: importe * tasa / 100 a centavos.
// Ganancias además exige importe >= mínimo no imponible; por debajo aporta
// cero pero igual queda asentado en el desglose.
func (c *Calculator) CalculateWithholdings(ctx context.Context, companyID, ownerID string, amount decimal.Decimal) (*Result, error) {
	company, err := c.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("cargar empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrNotFound)
	}
	owner, err := c.owners.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("cargar propietario: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("propietario %s: %w", ownerID, domain.ErrNotFound)
	}

	cfg := company.Withholding
	if !cfg.IsWithholdingAgent {
		return ZeroResult(), nil
	}

	res := ZeroResult()

	if cfg.IIBBRate.GreaterThan(decimal.Zero) && !owner.ExemptIIBB {
		res.IIBB = billing.Percentage(amount, cfg.IIBBRate)
		res.Breakdown = append(res.Breakdown, Item{TaxType: TaxIIBB, Rate: cfg.IIBBRate, Amount: res.IIBB})
	}

	if cfg.IVARate.GreaterThan(decimal.Zero) && !owner.ExemptIVA {
		res.IVA = billing.Percentage(amount, cfg.IVARate)
		res.Breakdown = append(res.Breakdown, Item{TaxType: TaxIVA, Rate: cfg.IVARate, Amount: res.IVA})
	}

	if cfg.GananciasRate.GreaterThan(decimal.Zero) && !owner.ExemptGanancias {
		if amount.GreaterThanOrEqual(cfg.GananciasMinThreshold) {
			res.Ganancias = billing.Percentage(amount, cfg.GananciasRate)
			res.Breakdown = append(res.Breakdown, Item{TaxType: TaxGanancias, Rate: cfg.GananciasRate, Amount: res.Ganancias})
		} else {
			res.Breakdown = append(res.Breakdown, Item{
				TaxType: TaxGanancias,
				Rate:    cfg.GananciasRate,
				Amount:  decimal.Zero,
				Note: fmt.Sprintf("importe %s por debajo del mínimo no imponible %s",
					amount.StringFixed(2), cfg.GananciasMinThreshold.StringFixed(2)),
			})
		}
	}

	res.Total = res.IIBB.Add(res.IVA).Add(res.Ganancias)
	return res, nil
}

// ValidateConfiguration detecta olores de configuración fiscal. Son
// advertencias para el operador, nunca bloquean la facturación.
func (c *Calculator) ValidateConfiguration(ctx context.Context, companyID string) ([]string, error) {
	company, err := c.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("cargar empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("empresa %s: %w", companyID, domain.ErrNotFound)
	}

	cfg := company.Withholding
	var warnings []string
	if !cfg.IsWithholdingAgent {
		return warnings, nil
	}
	if cfg.IIBBRate.GreaterThan(decimal.Zero) && cfg.IIBBJurisdiction == "" {
		warnings = append(warnings, "tasa IIBB configurada sin jurisdicción")
	}
	if cfg.GananciasRate.GreaterThan(decimal.Zero) && !cfg.GananciasMinThreshold.GreaterThan(decimal.Zero) {
		warnings = append(warnings, "tasa de ganancias configurada sin mínimo no imponible")
	}
	for _, w := range warnings {
		c.log.Warn().Str("company_id", companyID).Msg(w)
	}
	return warnings, nil
}
