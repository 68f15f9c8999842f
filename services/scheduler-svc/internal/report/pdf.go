package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// PDFGenerator renders a printable roster: one row per night listing the
// sysadmins on duty, followed by the per-sysadmin load table.
type PDFGenerator struct {
	BaseGenerator
}

func (g *PDFGenerator) Format() Format { return FormatPDF }

// Стили
var (
	primaryColor   = &props.Color{Red: 52, Green: 152, Blue: 219}  // #3498db
	headerBgColor  = &props.Color{Red: 44, Green: 62, Blue: 80}    // #2c3e50
	successColor   = &props.Color{Red: 39, Green: 174, Blue: 96}   // #27ae60
	dangerColor    = &props.Color{Red: 231, Green: 76, Blue: 60}   // #e74c3c
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241} // #ecf0f1
	darkGrayColor  = &props.Color{Red: 127, Green: 140, Blue: 141} // #7f8c8d

	titleStyle = props.Text{
		Size:  20,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: headerBgColor,
	}

	h2Style = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Color: headerBgColor,
		Top:   4,
	}

	smallStyle = props.Text{
		Size:  8,
		Color: darkGrayColor,
	}

	metricValueStyle = props.Text{
		Size:  14,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: primaryColor,
	}

	metricLabelStyle = props.Text{
		Size:  8,
		Align: align.Center,
		Color: darkGrayColor,
		Top:   7,
	}

	tableHeaderStyle = &props.Cell{
		BackgroundColor: primaryColor,
	}

	tableHeaderTextStyle = props.Text{
		Size:  9,
		Style: fontstyle.Bold,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Align: align.Center,
	}

	tableCellStyle = &props.Cell{
		BorderType:  border.Bottom,
		BorderColor: lightGrayColor,
	}
)

// pdf settings fall back to A4 landscape, 10 mm margins, 8 pt body text
func (g *PDFGenerator) pageConfig() *entity.Config {
	pc := g.cfg.PDF

	size := pagesize.A4
	switch pc.PageSize {
	case "Letter":
		size = pagesize.Letter
	case "Legal":
		size = pagesize.Legal
	case "A3":
		size = pagesize.A3
	}

	orient := orientation.Horizontal
	if pc.Orientation == "portrait" {
		orient = orientation.Vertical
	}

	margin := pc.Margin
	if margin <= 0 {
		margin = 10
	}

	return marotoconfig.NewBuilder().
		WithPageSize(size).
		WithOrientation(orient).
		WithPageNumber().
		WithLeftMargin(margin).
		WithTopMargin(margin).
		WithRightMargin(margin).
		Build()
}

func (g *PDFGenerator) bodyStyle() props.Text {
	size := g.cfg.PDF.FontSize
	if size <= 0 {
		size = 8
	}
	return props.Text{Size: size}
}

func (g *PDFGenerator) Generate(_ context.Context, data *Data) ([]byte, error) {
	m := maroto.New(g.pageConfig())

	g.addHeader(m, data)
	g.addResult(m, data)
	if data.Feasible {
		g.addRoster(m, data)
		g.addLoads(m, data)
	} else {
		g.addDiagnostics(m, data)
	}
	g.addFooter(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *PDFGenerator) addHeader(m core.Maroto, data *Data) {
	m.AddRow(12, text.NewCol(12, g.GetTitle(data), titleStyle))
	m.AddRow(4, line.NewCol(12))

	company := g.GetCompany()
	if company == "" {
		company = g.GetAuthor()
	}
	m.AddRow(6,
		text.NewCol(6, company, smallStyle),
		text.NewCol(6, "Generated: "+g.FormatTimestamp(data.GeneratedAt),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(4)
}

type metricCard struct {
	Label string
	Value string
}

func (g *PDFGenerator) addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}
	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	cols := make([]core.Col, 0, len(cards))
	for _, card := range cards {
		cols = append(cols, col.New(colSize).Add(
			text.New(card.Value, metricValueStyle),
			text.New(card.Label, metricLabelStyle),
		))
	}
	m.AddRow(16, cols...)
}

func (g *PDFGenerator) addSection(m core.Maroto, title string) {
	m.AddRow(9, text.NewCol(12, title, h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(3)
}

func (g *PDFGenerator) addResult(m core.Maroto, data *Data) {
	req := data.Request
	g.addSection(m, "Problem")
	g.addMetricCards(m, []metricCard{
		{Label: "Nights", Value: fmt.Sprintf("%d", req.Periods())},
		{Label: "Sysadmins", Value: fmt.Sprintf("%d", req.Agents())},
		{Label: "Per night", Value: fmt.Sprintf("%d", req.SysadminsPerNight)},
		{Label: "Max unwanted", Value: fmt.Sprintf("%d", req.MaxUnwantedShifts)},
		{Label: "Min shifts", Value: fmt.Sprintf("%d", req.MinShifts)},
	})

	statusStyle := metricValueStyle
	statusStyle.Color = successColor
	if !data.Feasible {
		statusStyle.Color = dangerColor
	}

	g.addSection(m, "Result")
	m.AddRow(16,
		col.New(4).Add(
			text.New(data.Status, statusStyle),
			text.New("Status", metricLabelStyle),
		),
		col.New(4).Add(
			text.New(fmt.Sprintf("%d / %d", data.AchievedFlow, data.RequiredFlow), metricValueStyle),
			text.New("Flow", metricLabelStyle),
		),
		col.New(4).Add(
			text.New(g.FormatDuration(data.Duration), metricValueStyle),
			text.New("Computation time", metricLabelStyle),
		),
	)
}

func (g *PDFGenerator) addRoster(m core.Maroto, data *Data) {
	body := g.bodyStyle()

	g.addSection(m, "Roster")
	m.AddRow(7,
		text.NewCol(2, "Night", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(10, "On duty", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)
	for i := range data.Assignment {
		m.AddRow(6,
			text.NewCol(2, fmt.Sprintf("%d", i), props.Text{Size: body.Size, Align: align.Center}).WithStyle(tableCellStyle),
			text.NewCol(10, strings.Join(data.OnDuty(i), ", "), body).WithStyle(tableCellStyle),
		)
	}
	m.AddRow(6, text.NewCol(12, unwantedMark+" marks an unwanted night", smallStyle))
}

func (g *PDFGenerator) addLoads(m core.Maroto, data *Data) {
	body := g.bodyStyle()
	body.Align = align.Center

	g.addSection(m, "Load per sysadmin")
	m.AddRow(7,
		text.NewCol(3, "Sysadmin", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Shifts", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Preferred", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
		text.NewCol(3, "Unwanted", tableHeaderTextStyle).WithStyle(tableHeaderStyle),
	)
	for _, load := range data.Summary().Agents {
		unwanted := body
		if load.Unwanted > 0 {
			unwanted.Color = dangerColor
		}
		m.AddRow(6,
			text.NewCol(3, data.AgentName(load.Agent), body).WithStyle(tableCellStyle),
			text.NewCol(3, fmt.Sprintf("%d", load.Shifts), body).WithStyle(tableCellStyle),
			text.NewCol(3, fmt.Sprintf("%d", load.Preferred), body).WithStyle(tableCellStyle),
			text.NewCol(3, fmt.Sprintf("%d", load.Unwanted), unwanted).WithStyle(tableCellStyle),
		)
	}
}

func (g *PDFGenerator) addDiagnostics(m core.Maroto, data *Data) {
	body := g.bodyStyle()

	g.addSection(m, "Diagnostics")
	if data.Reason != "" {
		m.AddRow(8, text.NewCol(12, data.Reason, body))
	}
	if len(data.Understaffed) > 0 {
		m.AddRow(6,
			text.NewCol(4, "Understaffed nights", props.Text{Size: body.Size, Style: fontstyle.Bold}),
			text.NewCol(8, joinInts(data.Understaffed), body),
		)
	}
	if len(data.Underloaded) > 0 {
		names := make([]string, len(data.Underloaded))
		for k, j := range data.Underloaded {
			names[k] = data.AgentName(j)
		}
		m.AddRow(6,
			text.NewCol(4, "Sysadmins below minimum", props.Text{Size: body.Size, Style: fontstyle.Bold}),
			text.NewCol(8, strings.Join(names, ", "), body),
		)
	}
}

func (g *PDFGenerator) addFooter(m core.Maroto, data *Data) {
	m.AddRow(8)
	m.AddRow(2, line.NewCol(12, props.Line{Color: lightGrayColor}))
	m.AddRow(6,
		text.NewCol(12,
			fmt.Sprintf("Generated by %s | %s", g.GetAuthor(), g.FormatTimestamp(data.GeneratedAt)),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Center},
		),
	)
}
