package entity

import "time"

// Tipos de job batch que registra el ledger de ejecuciones.
const (
	JobTypeBilling            = "billing"
	JobTypeOverdue            = "overdue"
	JobTypeReminders          = "reminders"
	JobTypeLateFees           = "late_fees"
	JobTypeSyncIndices        = "sync_indices"
	JobTypeReports            = "reports"
	JobTypeExchangeRates      = "exchange_rates"
	JobTypeProcessSettlements = "process_settlements"
)

// Estados de un job batch.
const (
	JobStatusPending        = "pending"
	JobStatusRunning        = "running"
	JobStatusCompleted      = "completed"
	JobStatusFailed         = "failed"
	JobStatusPartialFailure = "partial_failure"
)

// BillingJob registro de auditoría de una corrida batch. Append-only:
// una vez en estado terminal nunca se modifica ni se borra.
type BillingJob struct {
	ID               string
	JobType          string
	Status           string
	StartedAt        time.Time
	CompletedAt      *time.Time
	DurationMs       int64
	RecordsTotal     int
	RecordsProcessed int
	RecordsFailed    int
	RecordsSkipped   int
	ErrorLog         []string
	Parameters       map[string]string
	DryRun           bool
	CreatedAt        time.Time
}

// IsTerminal indica si el job ya cerró (completed, failed o partial_failure).
func (j *BillingJob) IsTerminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusPartialFailure:
		return true
	}
	return false
}

// JobCounts contadores de registros de una corrida.
type JobCounts struct {
	Total     int
	Processed int
	Failed    int
	Skipped   int
}
