// Package pdf renderiza los reportes del motor con Maroto v2.
//
// Layout A4 común a ambos reportes:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Propietario + período  │  Tipo de reporte + fecha  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: N° Factura | Período | Vencimiento | Estado | Total │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Bruto / Cobrado / Vencido (o Comisión / Neto)     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tu-usuario/rentas-pro/internal/application/reports"
	"github.com/tu-usuario/rentas-pro/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 70}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// es-AR: miles con punto, decimales con coma.
var printer = message.NewPrinter(language.MustParse("es-AR"))

var _ reports.Renderer = (*MarotoRenderer)(nil)

// MarotoRenderer implementa reports.Renderer usando Maroto v2.
type MarotoRenderer struct{}

// NewMarotoRenderer construye el renderizador.
func NewMarotoRenderer() *MarotoRenderer { return &MarotoRenderer{} }

// RenderMonthlyReport reporte mensual de facturación de un propietario.
func (r *MarotoRenderer) RenderMonthlyReport(data *reports.MonthlyReportData) ([]byte, error) {
	m := newDocument("Reporte mensual de facturación")

	m.AddRows(headerRow(data.Owner, data.Period, "REPORTE MENSUAL"))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(invoiceTableHeader())
	for _, inv := range data.Invoices {
		m.AddRows(invoiceRow(inv))
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow([]totalLine{
		{"Facturado bruto:", data.Gross, false},
		{"Cobrado:", data.Paid, false},
		{"Vencido impago:", data.Overdue, true},
	}))
	m.AddRows(legendRow())

	return generate(m)
}

// RenderSettlementReport detalle de una liquidación a propietario.
func (r *MarotoRenderer) RenderSettlementReport(data *reports.SettlementReportData) ([]byte, error) {
	m := newDocument("Liquidación a propietario")

	m.AddRows(headerRow(data.Owner, data.Settlement.Period, "LIQUIDACIÓN"))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(invoiceTableHeader())
	for _, inv := range data.Invoices {
		m.AddRows(invoiceRow(inv))
	}

	s := data.Settlement
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow([]totalLine{
		{"Bruto cobrado:", s.GrossAmount, false},
		{"Comisión administración:", s.CommissionAmount.Neg(), false},
		{"Retenciones:", s.WithholdingsAmount.Neg(), false},
		{"NETO A TRANSFERIR:", s.NetAmount, true},
	}))

	m.AddRows(row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Fecha programada: %s   |   Estado: %s   |   Referencia: %s",
			s.ScheduledDate.Format("02/01/2006"), s.Status, nonEmpty(s.TransferReference, "—")),
			props.Text{Size: 8, Color: colorGray, Top: 2}),
	)))
	m.AddRows(legendRow())

	return generate(m)
}

func newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		Build()
	return maroto.New(cfg)
}

func generate(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: propietario + período (izq) y tipo de reporte + fecha (der).
func headerRow(owner *entity.Owner, period, kind string) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(owner.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CUIT: "+nonEmpty(owner.CUIT, "—")+"   |   Período: "+period, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(kind, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Emitido: "+time.Now().Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func invoiceTableHeader() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("N° Factura", 3, align.Left),
		h("Período", 2, align.Center),
		h("Vencimiento", 2, align.Center),
		h("Estado", 2, align.Center),
		h("Total", 3, align.Right),
	)
}

func invoiceRow(inv *entity.Invoice) core.Row {
	return row.New(7).Add(
		col.New(3).Add(text.New(inv.InvoiceNumber,
			props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
		col.New(2).Add(text.New(inv.PeriodStart.Format("01/2006"),
			props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(inv.DueDate.Format("02/01/2006"),
			props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(2).Add(text.New(inv.Status,
			props.Text{Size: 8, Align: align.Center, Top: 1})),
		col.New(3).Add(text.New("$ "+formatAmount(inv.Total),
			props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
	)
}

type totalLine struct {
	label string
	value decimal.Decimal
	grand bool
}

func totalsRow(lines []totalLine) core.Row {
	labels := make([]core.Component, 0, len(lines))
	values := make([]core.Component, 0, len(lines))
	for i, l := range lines {
		top := float64(1 + i*6)
		style := props.Text{Size: 9, Align: align.Right, Right: 2, Top: top, Style: fontstyle.Bold}
		valStyle := props.Text{Size: 9, Align: align.Right, Right: 1, Top: top}
		if l.grand {
			style.Color = colorPrimary
			style.Size = 10
			valStyle.Color = colorPrimary
			valStyle.Size = 10
			valStyle.Style = fontstyle.Bold
		}
		labels = append(labels, text.New(l.label, style))
		values = append(values, text.New("$ "+formatAmount(l.value), valStyle))
	}
	height := float64(4 + len(lines)*6)
	return row.New(height).Add(
		col.New(4),
		col.New(4).Add(labels...),
		col.New(4).Add(values...),
	)
}

func legendRow() core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Documento informativo generado por el sistema de administración de alquileres. "+
				"Los importes se expresan en la moneda base de facturación.",
			props.Text{Size: 6.5, Color: colorGray, Top: 3},
		),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatAmount formatea el importe con convención es-AR (1.234,56).
func formatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return printer.Sprint(number.Decimal(f, number.Scale(2)))
}
