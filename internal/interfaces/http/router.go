package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/rentas-pro/internal/application/invoicing"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
)

// RouterDeps dependencias para el router del API administrativo.
type RouterDeps struct {
	Jobs        repository.BillingJobRepository
	Settlements repository.SettlementRepository
	Invoices    repository.InvoiceRepository
	Ledger      *invoicing.Ledger
	JWTSecret   string
}

// Router registra las rutas del API administrativo (subcomando serve).
func Router(app *fiber.App, deps RouterDeps) {
	// Health (público)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ledger de jobs (solo lectura)
	jobHandler := NewJobHandler(deps.Jobs)
	jobsGroup := protected.Group("/jobs")
	jobsGroup.Get("/", jobHandler.List)
	jobsGroup.Get("/:id", jobHandler.GetByID)

	// Liquidaciones (solo lectura)
	settlementHandler := NewSettlementHandler(deps.Settlements)
	protected.Get("/settlements", settlementHandler.List)

	// Facturas: consulta para todos los roles, pagos solo admin/operador
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Ledger)
	invoicesGroup := protected.Group("/invoices")
	invoicesGroup.Get("/:id", invoiceHandler.GetByID)
	invoicesGroup.Post("/:id/payments", RequireRole("admin", "operador"), invoiceHandler.RegisterPayment)
}
