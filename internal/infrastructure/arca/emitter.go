package arca

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tu-usuario/rentas-pro/internal/application/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/pkg/config"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Identificadores de ambiente de emisión electrónica.
const (
	AppEnvDev  = "dev"
	AppEnvTest = "test"
	AppEnvProd = "prod"
)

var _ billing.EInvoiceEmitter = (*Emitter)(nil)

// Emitter colaborador de factura electrónica (ARCA/AFIP). En ambiente dev no
// llama al WS: genera un CAE simulado con el formato real (14 dígitos,
// vigencia de 10 días), suficiente para el circuito completo de facturación
// en entornos locales y de staging.
type Emitter struct {
	cfg config.ARCAConfig
	log *logger.Logger
}

// NewEmitter construye el emisor según la configuración de ambiente.
func NewEmitter(cfg config.ARCAConfig, log *logger.Logger) *Emitter {
	return &Emitter{cfg: cfg, log: log.WithComponent("arca")}
}

// Emit solicita la autorización electrónica de la factura.
func (e *Emitter) Emit(ctx context.Context, inv *entity.Invoice, company *entity.Company) (*billing.EmissionResult, error) {
	switch e.cfg.AppEnv {
	case AppEnvDev:
		return e.simulate(inv), nil
	case AppEnvTest, AppEnvProd:
		// La conexión real requiere certificado WSAA; hasta tenerlo provisto
		// la emisión queda deshabilitada fuera de dev.
		return nil, fmt.Errorf("arca: emisión en ambiente %q no configurada (falta certificado WSAA)", e.cfg.AppEnv)
	default:
		return nil, fmt.Errorf("arca: ambiente desconocido %q (usar dev, test o prod)", e.cfg.AppEnv)
	}
}

func (e *Emitter) simulate(inv *entity.Invoice) *billing.EmissionResult {
	// CAE de 14 dígitos: 4 de timestamp anual + 10 aleatorios.
	cae := fmt.Sprintf("%04d%010d", time.Now().Year(), rand.Int63n(1e10))
	expiry := time.Now().AddDate(0, 0, 10)
	e.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("cae", cae).
		Msg("CAE simulado (ambiente dev)")
	return &billing.EmissionResult{CAE: cae, CAEExpiry: expiry}
}
