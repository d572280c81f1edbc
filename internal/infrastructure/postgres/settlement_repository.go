package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.SettlementRepository = (*SettlementRepo)(nil)

// SettlementRepo implementación de SettlementRepository sobre PostgreSQL.
type SettlementRepo struct {
	q Querier
}

// NewSettlementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSettlementRepository(q Querier) *SettlementRepo {
	return &SettlementRepo{q: q}
}

// GetByOwnerPeriod liquidación del propietario para el período YYYY-MM.
// Sin fila devuelve nil.
func (r *SettlementRepo) GetByOwnerPeriod(ctx context.Context, ownerID, period string) (*entity.Settlement, error) {
	query := selectSettlement + ` WHERE owner_id = $1 AND period = $2`
	s, err := scanSettlement(r.q.QueryRow(ctx, query, ownerID, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza por (owner_id, period). El WHERE del DO UPDATE
// excluye las filas completed: si ninguna fila resulta afectada y ya existe
// una liquidación, estaba cerrada y devuelve ErrLiquidacionCerrada.
func (r *SettlementRepo) Upsert(ctx context.Context, s *entity.Settlement) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO settlements
			(id, owner_id, period, gross_amount, commission_amount, withholdings_amount,
			 net_amount, currency, status, scheduled_date, processed_at,
			 transfer_reference, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		ON CONFLICT (owner_id, period) DO UPDATE
		SET gross_amount        = EXCLUDED.gross_amount,
		    commission_amount   = EXCLUDED.commission_amount,
		    withholdings_amount = EXCLUDED.withholdings_amount,
		    net_amount          = EXCLUDED.net_amount,
		    currency            = EXCLUDED.currency,
		    status              = EXCLUDED.status,
		    scheduled_date      = EXCLUDED.scheduled_date,
		    notes               = EXCLUDED.notes,
		    updated_at          = now()
		WHERE settlements.status <> 'completed'
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		s.ID, s.OwnerID, s.Period, s.GrossAmount, s.CommissionAmount, s.WithholdingsAmount,
		s.NetAmount, s.Currency, s.Status, s.ScheduledDate, s.ProcessedAt,
		nullIfEmpty(s.TransferReference), nullIfEmpty(s.Notes),
	).Scan(&s.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrLiquidacionCerrada
		}
		return fmt.Errorf("upsert settlement: %w", err)
	}
	return nil
}

// SetResult escribe el resultado del intento de payout.
func (r *SettlementRepo) SetResult(ctx context.Context, s *entity.Settlement) error {
	const query = `
		UPDATE settlements
		SET status             = $2,
		    processed_at       = $3,
		    transfer_reference = $4,
		    notes              = $5,
		    updated_at         = now()
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Status, s.ProcessedAt, nullIfEmpty(s.TransferReference), nullIfEmpty(s.Notes),
	)
	if err != nil {
		return fmt.Errorf("set settlement result: %w", err)
	}
	return nil
}

// List liquidaciones, opcionalmente filtradas por período.
func (r *SettlementRepo) List(ctx context.Context, period string, limit int) ([]*entity.Settlement, error) {
	if limit <= 0 {
		limit = 100
	}
	query := selectSettlement + ` WHERE ($1 = '' OR period = $1) ORDER BY scheduled_date DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, period, limit)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

const selectSettlement = `
	SELECT id, owner_id, period, gross_amount, commission_amount, withholdings_amount,
	       net_amount, currency, status, scheduled_date, processed_at,
	       COALESCE(transfer_reference, ''), COALESCE(notes, ''), created_at, updated_at
	FROM settlements`

func scanSettlement(row pgx.Row) (*entity.Settlement, error) {
	var s entity.Settlement
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Period, &s.GrossAmount, &s.CommissionAmount, &s.WithholdingsAmount,
		&s.NetAmount, &s.Currency, &s.Status, &s.ScheduledDate, &s.ProcessedAt,
		&s.TransferReference, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
