package repository

import (
	"context"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// CompanyRepository puerto de lectura de empresas (tablas del CRUD externo).
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
}
