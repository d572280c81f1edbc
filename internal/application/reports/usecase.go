package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/rentas-pro/internal/application/settlement"
	"github.com/tu-usuario/rentas-pro/internal/domain"
	domainbilling "github.com/tu-usuario/rentas-pro/internal/domain/billing"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
	"github.com/tu-usuario/rentas-pro/internal/domain/repository"
	"github.com/tu-usuario/rentas-pro/pkg/logger"
)

// Tipos de reporte soportados.
const (
	TypeMonthly    = "monthly"
	TypeSettlement = "settlement"
)

// MonthlyReportData datos para el reporte mensual de un propietario.
type MonthlyReportData struct {
	Owner    *entity.Owner
	Period   string
	Invoices []*entity.Invoice
	Gross    decimal.Decimal
	Paid     decimal.Decimal
	Overdue  decimal.Decimal
}

// SettlementReportData datos para el detalle de una liquidación.
type SettlementReportData struct {
	Owner      *entity.Owner
	Settlement *entity.Settlement
	Invoices   []*entity.Invoice
}

// Renderer puerto hacia el renderizador de PDFs.
type Renderer interface {
	RenderMonthlyReport(data *MonthlyReportData) ([]byte, error)
	RenderSettlementReport(data *SettlementReportData) ([]byte, error)
}

// UseCase arma los datos de reporte desde los libros y delega el render al
// colaborador PDF. En dry-run calcula todo pero no escribe el archivo.
type UseCase struct {
	invoices    repository.InvoiceRepository
	settlements repository.SettlementRepository
	owners      repository.OwnerRepository
	engine      *settlement.Engine
	renderer    Renderer
	outputDir   string
	log         *logger.Logger
}

// NewUseCase construye el caso de uso de reportes.
func NewUseCase(
	invoices repository.InvoiceRepository,
	settlements repository.SettlementRepository,
	owners repository.OwnerRepository,
	engine *settlement.Engine,
	renderer Renderer,
	outputDir string,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		invoices:    invoices,
		settlements: settlements,
		owners:      owners,
		engine:      engine,
		renderer:    renderer,
		outputDir:   outputDir,
		log:         log.WithComponent("reports"),
	}
}

// GenerateMonthly reporte mensual de facturación del propietario. Devuelve la
// ruta del PDF escrito (vacía en dry-run).
func (u *UseCase) GenerateMonthly(ctx context.Context, ownerID, period string, dryRun bool) (string, error) {
	owner, err := u.ownerByID(ctx, ownerID)
	if err != nil {
		return "", err
	}
	start, err := domainbilling.ParsePeriod(period)
	if err != nil {
		return "", err
	}
	end := start.AddDate(0, 1, -1)

	invoices, err := u.invoices.ListByOwnerPeriod(ctx, ownerID, start, end)
	if err != nil {
		return "", fmt.Errorf("facturas del período: %w", err)
	}

	data := &MonthlyReportData{Owner: owner, Period: period, Invoices: invoices,
		Gross: decimal.Zero, Paid: decimal.Zero, Overdue: decimal.Zero}
	for _, inv := range invoices {
		data.Gross = data.Gross.Add(inv.Total)
		data.Paid = data.Paid.Add(inv.AmountPaid)
		if inv.Status == entity.InvoiceStatusOverdue {
			data.Overdue = data.Overdue.Add(inv.Balance())
		}
	}

	if dryRun {
		u.log.Info().Str("owner_id", ownerID).Str("period", period).
			Int("invoices", len(invoices)).Msg("dry-run: reporte mensual calculado, sin renderizar")
		return "", nil
	}

	pdf, err := u.renderer.RenderMonthlyReport(data)
	if err != nil {
		return "", fmt.Errorf("renderizar reporte mensual: %w", err)
	}
	return u.write(fmt.Sprintf("mensual-%s-%s.pdf", ownerID, period), pdf)
}

// GenerateSettlement detalle de liquidación del propietario. Usa la fila
// persistida si existe; si no, calcula la liquidación al vuelo.
func (u *UseCase) GenerateSettlement(ctx context.Context, ownerID, period string, dryRun bool) (string, error) {
	owner, err := u.ownerByID(ctx, ownerID)
	if err != nil {
		return "", err
	}

	s, err := u.settlements.GetByOwnerPeriod(ctx, ownerID, period)
	if err != nil {
		return "", fmt.Errorf("buscar liquidación: %w", err)
	}
	if s == nil {
		calc, err := u.engine.CalculateSettlement(ctx, ownerID, period)
		if err != nil {
			return "", err
		}
		s = calc.Settlement
	}

	start, err := domainbilling.ParsePeriod(period)
	if err != nil {
		return "", err
	}
	invoices, err := u.invoices.FindPaidInPeriod(ctx, ownerID, start, start.AddDate(0, 1, -1))
	if err != nil {
		return "", fmt.Errorf("facturas pagas del período: %w", err)
	}

	if dryRun {
		u.log.Info().Str("owner_id", ownerID).Str("period", period).
			Msg("dry-run: reporte de liquidación calculado, sin renderizar")
		return "", nil
	}

	pdf, err := u.renderer.RenderSettlementReport(&SettlementReportData{
		Owner: owner, Settlement: s, Invoices: invoices,
	})
	if err != nil {
		return "", fmt.Errorf("renderizar liquidación: %w", err)
	}
	return u.write(fmt.Sprintf("liquidacion-%s-%s.pdf", ownerID, period), pdf)
}

func (u *UseCase) ownerByID(ctx context.Context, ownerID string) (*entity.Owner, error) {
	owner, err := u.owners.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("cargar propietario: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("propietario %s: %w", ownerID, domain.ErrNotFound)
	}
	return owner, nil
}

func (u *UseCase) write(name string, pdf []byte) (string, error) {
	if err := os.MkdirAll(u.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("crear directorio de reportes: %w", err)
	}
	path := filepath.Join(u.outputDir, name)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", fmt.Errorf("escribir %s: %w", path, err)
	}
	u.log.Info().Str("path", path).Msg("reporte generado")
	return path, nil
}
