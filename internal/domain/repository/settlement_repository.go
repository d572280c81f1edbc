package repository

import (
	"context"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// SettlementRepository puerto de persistencia de liquidaciones a propietarios.
type SettlementRepository interface {
	GetByOwnerPeriod(ctx context.Context, ownerID, period string) (*entity.Settlement, error)
	// Upsert inserta o actualiza por (owner_id, period). Nunca pisa una
	// liquidación completed: en ese caso devuelve domain.ErrLiquidacionCerrada.
	Upsert(ctx context.Context, s *entity.Settlement) error
	// SetResult escribe el resultado del payout (status, processed_at,
	// transfer_reference, notes). La fila nunca se borra, solo re-transiciona.
	SetResult(ctx context.Context, s *entity.Settlement) error
	List(ctx context.Context, period string, limit int) ([]*entity.Settlement, error)
}
