package settlement

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// PayoutResult referencia de la transferencia iniciada.
type PayoutResult struct {
	Reference string
}

// PayoutClient puerto de salida hacia el iniciador de transferencias
// bancarias. Devuelve éxito con referencia o error.
type PayoutClient interface {
	InitiateTransfer(ctx context.Context, owner *entity.Owner, amount decimal.Decimal, currency, period string) (*PayoutResult, error)
}

// Notifier aviso de liquidación acreditada al propietario (best-effort).
type Notifier interface {
	SendSettlementNotice(ctx context.Context, owner *entity.Owner, s *entity.Settlement) error
}
