package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.OwnerRepository = (*OwnerRepo)(nil)

// OwnerRepo implementación de OwnerRepository sobre PostgreSQL.
type OwnerRepo struct {
	q Querier
}

// NewOwnerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOwnerRepository(q Querier) *OwnerRepo {
	return &OwnerRepo{q: q}
}

// GetByID obtiene un propietario por ID. Sin fila devuelve nil.
func (r *OwnerRepo) GetByID(ctx context.Context, id string) (*entity.Owner, error) {
	const query = `
		SELECT id, company_id, name, COALESCE(email, ''), COALESCE(cuit, ''),
		       commission_rate, exempt_iibb, exempt_iva, exempt_ganancias,
		       COALESCE(bank_alias, ''), COALESCE(cbu, ''), created_at
		FROM owners
		WHERE id = $1`
	var o entity.Owner
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CompanyID, &o.Name, &o.Email, &o.CUIT,
		&o.CommissionRate, &o.ExemptIIBB, &o.ExemptIVA, &o.ExemptGanancias,
		&o.BankAlias, &o.CBU, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return &o, nil
}
