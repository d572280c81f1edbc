package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

// JobHandler consultas de solo lectura sobre el ledger de jobs (protegido).
type JobHandler struct {
	repo repository.BillingJobRepository
}

// NewJobHandler construye el handler.
func NewJobHandler(repo repository.BillingJobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

type jobResponse struct {
	ID               string            `json:"id"`
	JobType          string            `json:"job_type"`
	Status           string            `json:"status"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	DurationMs       int64             `json:"duration_ms"`
	RecordsTotal     int               `json:"records_total"`
	RecordsProcessed int               `json:"records_processed"`
	RecordsFailed    int               `json:"records_failed"`
	RecordsSkipped   int               `json:"records_skipped"`
	ErrorLog         []string          `json:"error_log,omitempty"`
	Parameters       map[string]string `json:"parameters,omitempty"`
	DryRun           bool              `json:"dry_run"`
}

func toJobResponse(j *entity.BillingJob) jobResponse {
	return jobResponse{
		ID:               j.ID,
		JobType:          j.JobType,
		Status:           j.Status,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		DurationMs:       j.DurationMs,
		RecordsTotal:     j.RecordsTotal,
		RecordsProcessed: j.RecordsProcessed,
		RecordsFailed:    j.RecordsFailed,
		RecordsSkipped:   j.RecordsSkipped,
		ErrorLog:         j.ErrorLog,
		Parameters:       j.Parameters,
		DryRun:           j.DryRun,
	}
}

// List jobs más recientes, filtrables por tipo.
// GET /api/v1/jobs?type=billing&limit=50
func (h *JobHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	jobs, err := h.repo.List(c.Context(), c.Query("type"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return c.JSON(out)
}

// GetByID detalle de una corrida.
// GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	job, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if job == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "job no encontrado"})
	}
	return c.JSON(toJobResponse(job))
}
