// Package pdf genera el reporte de reposición en PDF con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + ciclo            │  fecha de generación    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: a reponer / urgentes / stock bajo / costo total    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Artículo | Cant. | Días | Urgencia | Pedir | Costo   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CATEGORÍAS: costo por categoría                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

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

	"github.com/jhoicas/stockwise-forecast/internal/application/dto"
	"github.com/jhoicas/stockwise-forecast/internal/application/ports"
)

var _ ports.ReportGenerator = (*RestockReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorUrgent  = &props.Color{Red: 190, Green: 30, Blue: 45}
	colorWarning = &props.Color{Red: 200, Green: 120, Blue: 0}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// RestockReportGenerator implementa ports.ReportGenerator usando Maroto v2.
type RestockReportGenerator struct {
	appName string
}

// NewRestockReportGenerator construye el generador.
func NewRestockReportGenerator(appName string) *RestockReportGenerator {
	return &RestockReportGenerator{appName: appName}
}

// GenerateRestockReport genera el PDF de un ciclo y devuelve sus bytes.
func (g *RestockReportGenerator) GenerateRestockReport(list *dto.ForecastListDTO, summary *dto.RestockSummaryDTO) ([]byte, error) {
	if list == nil || summary == nil {
		return nil, fmt.Errorf("pdf: ciclo vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de reposición", true).
		WithAuthor(g.appName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.appName, list))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(summary))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(list.Items)...)

	if len(summary.Categories) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(categoryRows(summary.Categories)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(appName string, list *dto.ForecastListDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(appName+" · Reporte de reposición", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Ciclo "+list.CycleID, props.Text{Size: 7, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Generado: "+list.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func summaryRow(s *dto.RestockSummaryDTO) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1, Align: align.Center}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 5, Align: align.Center}),
		)
	}
	return row.New(14).Add(
		cell("A reponer", fmt.Sprintf("%d / %d", s.ItemsToRestock, s.TotalItems)),
		cell("Urgentes (< 7 días)", fmt.Sprintf("%d", s.UrgentItems)),
		cell("En stock bajo", fmt.Sprintf("%d (%d nuevos)", s.LowStockItems, s.NewlyLowItems)),
		cell("Costo estimado", "$"+formatMoney(s.TotalCost)),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Artículo", 4, align.Left),
		h("Cant.", 1, align.Center),
		h("Días", 1, align.Center),
		h("Urgencia", 2, align.Center),
		h("Pedir", 1, align.Right),
		h("Costo", 2, align.Right),
		h("Conf.", 1, align.Center),
	)
}

// tableRows una fila por artículo, en orden de catálogo.
func tableRows(items []dto.ForecastDTO) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		name := it.Name
		if it.NewlyLow {
			name += " *"
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.CurrentQuantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%d", it.PredictedDaysUntilLow), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(urgencyLabel(it.Urgency), props.Text{
				Size: 8, Align: align.Center, Top: 1, Color: urgencyColor(it.Urgency), Style: fontstyle.Bold,
			})),
			col.New(1).Add(text.New(formatQty(it.RecommendedReorderQty), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.EstimatedRestockCost), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(fmt.Sprintf("%.0f%%", it.ConfidenceScore*100), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return rows
}

func categoryRows(cats []dto.CategorySummaryDTO) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("COSTO POR CATEGORÍA", props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}))),
	}
	for _, c := range cats {
		rows = append(rows, row.New(5).Add(
			col.New(6).Add(text.New(c.Category, props.Text{Size: 8, Left: 2})),
			col.New(3).Add(text.New(fmt.Sprintf("%d artículo(s), %s uds", c.Items, formatQty(c.ReorderUnits)), props.Text{Size: 8, Color: colorGray})),
			col.New(3).Add(text.New("$"+formatMoney(c.TotalCost), props.Text{Size: 8, Align: align.Right, Right: 1})),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func urgencyLabel(u string) string {
	switch u {
	case "urgent":
		return "URGENTE"
	case "warning":
		return "PRONTO"
	default:
		return "normal"
	}
}

func urgencyColor(u string) *props.Color {
	switch u {
	case "urgent":
		return colorUrgent
	case "warning":
		return colorWarning
	default:
		return colorGray
	}
}

func formatQty(q float64) string {
	return decimal.NewFromFloat(q).String()
}

// formatMoney dos decimales con puntos de miles y coma decimal.
// Ej: 25000 → "25.000,00", 1234.5 → "1.234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac
}
