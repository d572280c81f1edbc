package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/invoicing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

// InvoiceHandler consulta de facturas y alta de pagos confirmados (protegido).
type InvoiceHandler struct {
	repo   repository.InvoiceRepository
	ledger *invoicing.Ledger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(repo repository.InvoiceRepository, ledger *invoicing.Ledger) *InvoiceHandler {
	return &InvoiceHandler{repo: repo, ledger: ledger}
}

type invoiceResponse struct {
	ID                string     `json:"id"`
	LeaseID           string     `json:"lease_id"`
	OwnerID           string     `json:"owner_id"`
	InvoiceNumber     string     `json:"invoice_number"`
	PeriodStart       string     `json:"period_start"`
	PeriodEnd         string     `json:"period_end"`
	Subtotal          string     `json:"subtotal"`
	LateFee           string     `json:"late_fee"`
	Total             string     `json:"total"`
	CurrencyCode      string     `json:"currency_code"`
	AmountPaid        string     `json:"amount_paid"`
	Balance           string     `json:"balance"`
	DueDate           string     `json:"due_date"`
	Status            string     `json:"status"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	OriginalAmount    string     `json:"original_amount,omitempty"`
	OriginalCurrency  string     `json:"original_currency,omitempty"`
	WithholdingsTotal string     `json:"withholdings_total"`
	CAE               string     `json:"cae,omitempty"`
}

func toInvoiceResponse(inv *entity.Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:                inv.ID,
		LeaseID:           inv.LeaseID,
		OwnerID:           inv.OwnerID,
		InvoiceNumber:     inv.InvoiceNumber,
		PeriodStart:       inv.PeriodStart.Format("2006-01-02"),
		PeriodEnd:         inv.PeriodEnd.Format("2006-01-02"),
		Subtotal:          inv.Subtotal.StringFixed(2),
		LateFee:           inv.LateFee.StringFixed(2),
		Total:             inv.Total.StringFixed(2),
		CurrencyCode:      inv.CurrencyCode,
		AmountPaid:        inv.AmountPaid.StringFixed(2),
		Balance:           inv.Balance().StringFixed(2),
		DueDate:           inv.DueDate.Format("2006-01-02"),
		Status:            inv.Status,
		PaidAt:            inv.PaidAt,
		OriginalCurrency:  inv.OriginalCurrency,
		WithholdingsTotal: inv.WithholdingsTotal.StringFixed(2),
		CAE:               inv.CAE,
	}
	if inv.OriginalAmount != nil {
		out.OriginalAmount = inv.OriginalAmount.StringFixed(2)
	}
	return out
}

// GetByID detalle de una factura.
// GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	inv, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if inv == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	}
	return c.JSON(toInvoiceResponse(inv))
}

// RegisterPayment acredita un pago confirmado por cobranzas.
// POST /api/v1/invoices/:id/payments
func (h *InvoiceHandler) RegisterPayment(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	var in RegisterPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	amount, err := decimal.NewFromString(in.Amount)
	if err != nil || !amount.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "amount debe ser un decimal positivo"})
	}
	paidAt := time.Now().UTC()
	if in.PaidAt != "" {
		paidAt, err = time.Parse("2006-01-02", in.PaidAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "paid_at: formato YYYY-MM-DD"})
		}
	}

	inv, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if inv == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	}

	if err := h.ledger.RegisterPayment(c.Context(), id, amount, paidAt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}

	updated, err := h.repo.GetByID(c.Context(), id)
	if err != nil || updated == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: "pago registrado pero no se pudo releer la factura"})
	}
	return c.JSON(toInvoiceResponse(updated))
}
