package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	sheetRoster  = "Roster"
	sheetLoads   = "Loads"
	sheetSummary = "Summary"
)

// ExcelGenerator writes a workbook with Roster, Loads and Summary sheets.
// Unwanted shifts are highlighted on the Roster sheet.
type ExcelGenerator struct {
	BaseGenerator
}

func (g *ExcelGenerator) Format() Format { return FormatXLSX }

type excelStyles struct {
	header    int
	preferred int
	unwanted  int
}

func (g *ExcelGenerator) Generate(_ context.Context, data *Data) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newExcelStyles(f)
	if err != nil {
		return nil, fmt.Errorf("excel styles: %w", err)
	}

	// Первый лист переименовываем в Summary
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	if err := g.writeSummary(f, data, styles); err != nil {
		return nil, err
	}

	if data.Feasible {
		if _, err := f.NewSheet(sheetRoster); err != nil {
			return nil, err
		}
		if err := g.writeRoster(f, data, styles); err != nil {
			return nil, err
		}
		if _, err := f.NewSheet(sheetLoads); err != nil {
			return nil, err
		}
		if err := g.writeLoads(f, data, styles); err != nil {
			return nil, err
		}
		idx, err := f.GetSheetIndex(sheetRoster)
		if err != nil {
			return nil, err
		}
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var (
		s   excelStyles
		err error
	)
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, err
	}
	s.preferred, err = f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return s, err
	}
	s.unwanted, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return s, err
}

func (g *ExcelGenerator) writeSummary(f *excelize.File, data *Data, st excelStyles) error {
	req := data.Request
	rows := [][]any{
		{g.GetTitle(data)},
		{},
		{"Parameter", "Value"},
		{"Nights", req.Periods()},
		{"Sysadmins", req.Agents()},
		{"Sysadmins per night", req.SysadminsPerNight},
		{"Max unwanted shifts", req.MaxUnwantedShifts},
		{"Min shifts", req.MinShifts},
		{"Status", data.Status},
		{"Required flow", data.RequiredFlow},
		{"Achieved flow", data.AchievedFlow},
		{"Augmenting paths", data.Iterations},
		{"Computation time", g.FormatDuration(data.Duration)},
		{"Generated", g.FormatTimestamp(data.GeneratedAt)},
		{"Author", g.GetAuthor()},
	}
	if data.Reason != "" {
		rows = append(rows, []any{"Reason", data.Reason})
	}
	if len(data.Understaffed) > 0 {
		rows = append(rows, []any{"Understaffed nights", joinInts(data.Understaffed)})
	}
	if len(data.Underloaded) > 0 {
		rows = append(rows, []any{"Underloaded sysadmins", joinInts(data.Underloaded)})
	}

	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A3", "B3", st.header); err != nil {
		return err
	}
	return f.SetColWidth(sheetSummary, "A", "B", 24)
}

func (g *ExcelGenerator) writeRoster(f *excelize.File, data *Data, st excelStyles) error {
	agents := data.Request.Agents()

	header := make([]any, 0, agents+1)
	header = append(header, "Night")
	for j := 0; j < agents; j++ {
		header = append(header, data.AgentName(j))
	}
	if err := f.SetSheetRow(sheetRoster, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(agents+1, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetRoster, "A1", last, st.header); err != nil {
		return err
	}

	for i, row := range data.Assignment {
		if err := f.SetCellValue(sheetRoster, fmt.Sprintf("A%d", i+2), i); err != nil {
			return err
		}
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetRoster, cell, v); err != nil {
				return err
			}
			if v != 1 {
				continue
			}
			style := st.preferred
			if !data.Request.Prefers(i, j) {
				style = st.unwanted
			}
			if err := f.SetCellStyle(sheetRoster, cell, cell, style); err != nil {
				return err
			}
		}
	}

	// Закрепляем заголовок и колонку ночей
	return f.SetPanes(sheetRoster, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	})
}

func (g *ExcelGenerator) writeLoads(f *excelize.File, data *Data, st excelStyles) error {
	header := []any{"Sysadmin", "Shifts", "Preferred", "Unwanted"}
	if err := f.SetSheetRow(sheetLoads, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetLoads, "A1", "D1", st.header); err != nil {
		return err
	}

	for k, load := range data.Summary().Agents {
		row := []any{data.AgentName(load.Agent), load.Shifts, load.Preferred, load.Unwanted}
		if err := f.SetSheetRow(sheetLoads, fmt.Sprintf("A%d", k+2), &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetLoads, "A", "A", 20)
}
