package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Ledger registra inicio y cierre de cada corrida batch. Es un log de
// auditoría pasivo, pero Start sí garantiza exclusión: rechaza un segundo job
// del mismo tipo mientras haya uno running.
type Ledger struct {
	repo repository.BillingJobRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewLedger construye el ledger de jobs.
func NewLedger(repo repository.BillingJobRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		log:  log.WithComponent("jobs"),
		now:  time.Now,
	}
}

// Start inserta el registro running y devuelve el handle de la corrida.
// El caller debe diferir Close y cerrar con exactamente uno de
// Complete/Fail; Close cubre los caminos de salida no contemplados
// (incluidos panics) marcando el job como failed.
func (l *Ledger) Start(ctx context.Context, jobType string, params map[string]string, dryRun bool) (*Run, error) {
	running, err := l.repo.HasRunning(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("verificar jobs en curso: %w", err)
	}
	if running {
		return nil, fmt.Errorf("%w: %s", domain.ErrJobEnCurso, jobType)
	}

	job := &entity.BillingJob{
		ID:         uuid.New().String(),
		JobType:    jobType,
		Status:     entity.JobStatusRunning,
		StartedAt:  l.now().UTC(),
		Parameters: params,
		DryRun:     dryRun,
	}
	if err := l.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("registrar inicio de job: %w", err)
	}

	l.log.Info().
		Str("job_id", job.ID).
		Str("job_type", jobType).
		Bool("dry_run", dryRun).
		Msg("job iniciado")

	return &Run{job: job, repo: l.repo, log: l.log, now: l.now}, nil
}

// Run handle de una corrida en curso. La transición terminal ocurre a lo sumo
// una vez: llamadas posteriores a Complete/Fail/Close son no-op.
type Run struct {
	job  *entity.BillingJob
	repo repository.BillingJobRepository
	log  *logger.Logger
	now  func() time.Time
	once sync.Once
}

// ID identificador del job registrado.
func (r *Run) ID() string { return r.job.ID }

// Complete cierra la corrida con sus contadores. Cualquier registro fallido
// degrada el estado a partial_failure; si no hubo fallas queda completed.
func (r *Run) Complete(ctx context.Context, counts entity.JobCounts, errorLog []string) error {
	status := entity.JobStatusCompleted
	if counts.Failed > 0 {
		status = entity.JobStatusPartialFailure
	}
	return r.finish(ctx, status, counts, errorLog)
}

// Fail cierra la corrida como failed con el mensaje y el detalle de errores.
func (r *Run) Fail(ctx context.Context, msg string, errorLog []string) error {
	log := append([]string{msg}, errorLog...)
	return r.finish(ctx, entity.JobStatusFailed, entity.JobCounts{}, log)
}

// Close cierre de resguardo para defer: si la corrida no fue cerrada
// explícitamente (retorno temprano, panic) la marca failed para que ningún
// job quede running para siempre.
func (r *Run) Close(ctx context.Context) {
	_ = r.finish(ctx, entity.JobStatusFailed, entity.JobCounts{},
		[]string{"job terminado sin cierre explícito"})
}

func (r *Run) finish(ctx context.Context, status string, counts entity.JobCounts, errorLog []string) error {
	var err error
	r.once.Do(func() {
		completedAt := r.now().UTC()
		r.job.Status = status
		r.job.CompletedAt = &completedAt
		r.job.DurationMs = completedAt.Sub(r.job.StartedAt).Milliseconds()
		r.job.RecordsTotal = counts.Total
		r.job.RecordsProcessed = counts.Processed
		r.job.RecordsFailed = counts.Failed
		r.job.RecordsSkipped = counts.Skipped
		r.job.ErrorLog = errorLog

		if uerr := r.repo.Finish(ctx, r.job); uerr != nil {
			err = fmt.Errorf("cerrar job %s: %w", r.job.ID, uerr)
			return
		}

		ev := r.log.Info()
		if status == entity.JobStatusFailed {
			ev = r.log.Error()
		}
		ev.Str("job_id", r.job.ID).
			Str("job_type", r.job.JobType).
			Str("status", status).
			Int64("duration_ms", r.job.DurationMs).
			Int("processed", counts.Processed).
			Int("failed", counts.Failed).
			Msg("job cerrado")
	})
	return err
}
