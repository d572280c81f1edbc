package repository

import (
	"context"

	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

// BillingJobRepository puerto de persistencia del ledger de jobs batch.
type BillingJobRepository interface {
	// Create inserta el registro del job (estado running).
	Create(ctx context.Context, job *entity.BillingJob) error
	// Finish escribe los campos terminales (status, contadores, error_log,
	// completed_at, duration_ms). Solo aplica sobre jobs aún running.
	Finish(ctx context.Context, job *entity.BillingJob) error
	// HasRunning indica si existe otro job del mismo tipo en estado running.
	HasRunning(ctx context.Context, jobType string) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.BillingJob, error)
	// List devuelve los jobs más recientes, opcionalmente filtrados por tipo.
	List(ctx context.Context, jobType string, limit int) ([]*entity.BillingJob, error)
}
