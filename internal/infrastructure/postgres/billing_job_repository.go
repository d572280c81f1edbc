package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

var _ repository.BillingJobRepository = (*BillingJobRepo)(nil)

// BillingJobRepo implementación de BillingJobRepository sobre PostgreSQL.
type BillingJobRepo struct {
	q Querier
}

// NewBillingJobRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillingJobRepository(q Querier) *BillingJobRepo {
	return &BillingJobRepo{q: q}
}

// Create inserta el registro del job en estado running.
func (r *BillingJobRepo) Create(ctx context.Context, job *entity.BillingJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO billing_jobs
			(id, job_type, status, started_at, records_total, records_processed,
			 records_failed, records_skipped, error_log, parameters, dry_run, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, 0, $5, $6, $7, now())`
	_, err := r.q.Exec(ctx, query,
		job.ID, job.JobType, job.Status, job.StartedAt,
		job.ErrorLog, job.Parameters, job.DryRun,
	)
	if err != nil {
		return fmt.Errorf("insert billing_job: %w", err)
	}
	return nil
}

// Finish escribe los campos terminales. La guarda status = 'running' hace que
// un job ya cerrado sea inmutable aunque se reintente el cierre.
func (r *BillingJobRepo) Finish(ctx context.Context, job *entity.BillingJob) error {
	const query = `
		UPDATE billing_jobs
		SET status            = $2,
		    completed_at      = $3,
		    duration_ms       = $4,
		    records_total     = $5,
		    records_processed = $6,
		    records_failed    = $7,
		    records_skipped   = $8,
		    error_log         = $9
		WHERE id = $1 AND status = 'running'`
	_, err := r.q.Exec(ctx, query,
		job.ID, job.Status, job.CompletedAt, job.DurationMs,
		job.RecordsTotal, job.RecordsProcessed, job.RecordsFailed, job.RecordsSkipped,
		job.ErrorLog,
	)
	if err != nil {
		return fmt.Errorf("finish billing_job: %w", err)
	}
	return nil
}

// HasRunning indica si hay otro job del mismo tipo en estado running.
func (r *BillingJobRepo) HasRunning(ctx context.Context, jobType string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM billing_jobs WHERE job_type = $1 AND status = 'running')`
	var exists bool
	if err := r.q.QueryRow(ctx, query, jobType).Scan(&exists); err != nil {
		return false, fmt.Errorf("check running job: %w", err)
	}
	return exists, nil
}

// GetByID obtiene un job por ID. Sin fila devuelve nil.
func (r *BillingJobRepo) GetByID(ctx context.Context, id string) (*entity.BillingJob, error) {
	const query = selectJob + ` WHERE id = $1`
	job, err := scanJob(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get billing_job: %w", err)
	}
	return job, nil
}

// List devuelve los jobs más recientes, opcionalmente filtrados por tipo.
func (r *BillingJobRepo) List(ctx context.Context, jobType string, limit int) ([]*entity.BillingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := selectJob + ` WHERE ($1 = '' OR job_type = $1) ORDER BY started_at DESC LIMIT $2`
	rows, err := r.q.Query(ctx, query, jobType, limit)
	if err != nil {
		return nil, fmt.Errorf("list billing_jobs: %w", err)
	}
	defer rows.Close()

	var list []*entity.BillingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing_job: %w", err)
		}
		list = append(list, job)
	}
	return list, rows.Err()
}

const selectJob = `
	SELECT id, job_type, status, started_at, completed_at, COALESCE(duration_ms, 0),
	       records_total, records_processed, records_failed, records_skipped,
	       error_log, parameters, dry_run, created_at
	FROM billing_jobs`

func scanJob(row pgx.Row) (*entity.BillingJob, error) {
	var j entity.BillingJob
	err := row.Scan(
		&j.ID, &j.JobType, &j.Status, &j.StartedAt, &j.CompletedAt, &j.DurationMs,
		&j.RecordsTotal, &j.RecordsProcessed, &j.RecordsFailed, &j.RecordsSkipped,
		&j.ErrorLog, &j.Parameters, &j.DryRun, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
