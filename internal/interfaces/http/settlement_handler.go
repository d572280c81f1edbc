package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

// SettlementHandler consultas de solo lectura sobre liquidaciones (protegido).
type SettlementHandler struct {
	repo repository.SettlementRepository
}

// NewSettlementHandler construye el handler.
func NewSettlementHandler(repo repository.SettlementRepository) *SettlementHandler {
	return &SettlementHandler{repo: repo}
}

type settlementResponse struct {
	ID                 string     `json:"id"`
	OwnerID            string     `json:"owner_id"`
	Period             string     `json:"period"`
	GrossAmount        string     `json:"gross_amount"`
	CommissionAmount   string     `json:"commission_amount"`
	WithholdingsAmount string     `json:"withholdings_amount"`
	NetAmount          string     `json:"net_amount"`
	Currency           string     `json:"currency"`
	Status             string     `json:"status"`
	ScheduledDate      string     `json:"scheduled_date"`
	ProcessedAt        *time.Time `json:"processed_at,omitempty"`
	TransferReference  string     `json:"transfer_reference,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

func toSettlementResponse(s *entity.Settlement) settlementResponse {
	return settlementResponse{
		ID:                 s.ID,
		OwnerID:            s.OwnerID,
		Period:             s.Period,
		GrossAmount:        s.GrossAmount.StringFixed(2),
		CommissionAmount:   s.CommissionAmount.StringFixed(2),
		WithholdingsAmount: s.WithholdingsAmount.StringFixed(2),
		NetAmount:          s.NetAmount.StringFixed(2),
		Currency:           s.Currency,
		Status:             s.Status,
		ScheduledDate:      s.ScheduledDate.Format("2006-01-02"),
		ProcessedAt:        s.ProcessedAt,
		TransferReference:  s.TransferReference,
		Notes:              s.Notes,
	}
}

// List liquidaciones, filtrables por período.
// GET /api/v1/settlements?period=2025-07&limit=100
func (h *SettlementHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	settlements, err := h.repo.List(c.Context(), c.Query("period"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]settlementResponse, 0, len(settlements))
	for _, s := range settlements {
		out = append(out, toSettlementResponse(s))
	}
	return c.JSON(out)
}
