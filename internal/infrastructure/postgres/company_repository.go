package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación de CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

// GetByID obtiene una empresa por ID. Sin fila devuelve nil.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	const query = `
		SELECT id, name, cuit, base_currency, COALESCE(withholding_config, '{}'::jsonb),
		       commission_rate, late_fee_rate, billing_grace_days, created_at
		FROM companies
		WHERE id = $1`
	var c entity.Company
	var raw map[string]any
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.CUIT, &c.BaseCurrency, &raw,
		&c.CommissionRate, &c.LateFeeRate, &c.BillingGraceDays, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.Withholding = parseWithholdingConfig(raw)
	return &c, nil
}

// parseWithholdingConfig mapea el JSONB de retenciones al struct tipado.
// El esquema histórico guardaba claves dinámicas con nombres mixtos; acá se
// aceptan ambos nombres por clave y el resto del motor solo ve el struct.
func parseWithholdingConfig(raw map[string]any) entity.WithholdingConfig {
	var cfg entity.WithholdingConfig
	cfg.IsWithholdingAgent = cfgBool(raw, "is_withholding_agent", "agente_retencion")
	cfg.IIBBRate = cfgDecimal(raw, "iibb_rate", "percepcion_iibb")
	cfg.IIBBJurisdiction = cfgString(raw, "iibb_jurisdiction", "jurisdiccion_iibb")
	cfg.IVARate = cfgDecimal(raw, "iva_rate", "retencion_iva")
	cfg.GananciasRate = cfgDecimal(raw, "ganancias_rate", "retencion_ganancias")
	cfg.GananciasMinThreshold = cfgDecimal(raw, "ganancias_min_threshold", "minimo_ganancias")
	return cfg
}

func cfgBool(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := raw[k].(bool); ok {
			return v
		}
	}
	return false
}

func cfgString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok {
			return v
		}
	}
	return ""
}

func cfgDecimal(raw map[string]any, keys ...string) decimal.Decimal {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return decimal.NewFromFloat(v)
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}
