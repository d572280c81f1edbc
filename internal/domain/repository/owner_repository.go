package repository

import (
	"context"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// OwnerRepository puerto de lectura de propietarios (tablas del CRUD externo).
type OwnerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Owner, error)
}
