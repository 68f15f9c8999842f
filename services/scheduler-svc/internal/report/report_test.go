package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/config"
	"rostering/services/scheduler-svc/internal/roster"
)

// 3 ночи, 2 админа; agent 1 дежурит в нежеланную ночь 2
func feasibleData(t *testing.T) *Data {
	t.Helper()
	req := roster.Request{
		Preferences:       roster.Matrix{{1, 0}, {0, 1}, {1, 0}},
		SysadminsPerNight: 1,
		MaxUnwantedShifts: 1,
		MinShifts:         1,
	}
	alloc := &roster.Allocation{
		Status:       roster.StatusFeasible,
		Assignment:   roster.Matrix{{1, 0}, {0, 1}, {0, 1}},
		RequiredFlow: 3,
		AchievedFlow: 3,
		Iterations:   3,
		Duration:     1500 * time.Microsecond,
	}
	d := FromAllocation(req, alloc)
	d.Agents = []string{"alice", "bob"}
	d.GeneratedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return d
}

func infeasibleData() *Data {
	req := roster.Request{
		Preferences:       roster.Matrix{{1}},
		SysadminsPerNight: 2,
	}
	return FromResponse(req, &schedulerv1.AllocateResponse{
		Status:              "INFEASIBLE_FLOW",
		Reason:              "achieved flow 1 of 2",
		RequiredFlow:        2,
		AchievedFlow:        1,
		UnderstaffedPeriods: []int32{0},
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"md", FormatMarkdown},
		{"Markdown", FormatMarkdown},
		{"xlsx", FormatXLSX},
		{" pdf ", FormatPDF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("docx")
	assert.Error(t, err)
	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.Equal(t, "xlsx", FormatXLSX.Extension())
}

func TestNew(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatMarkdown, FormatXLSX, FormatPDF} {
		g, err := New(f, config.ReportConfig{})
		require.NoError(t, err)
		assert.Equal(t, f, g.Format())
	}
	_, err := New("html", config.ReportConfig{})
	assert.Error(t, err)
}

func TestData_OnDuty(t *testing.T) {
	d := feasibleData(t)

	assert.Equal(t, []string{"alice"}, d.OnDuty(0))
	assert.Equal(t, []string{"bob*"}, d.OnDuty(2))
	assert.Nil(t, d.OnDuty(7))
	assert.Equal(t, "agent-3", d.AgentName(3))
}

func TestCSVGenerator(t *testing.T) {
	g, err := New(FormatCSV, config.ReportConfig{})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), feasibleData(t))
	require.NoError(t, err)

	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"night", "alice", "bob"}, records[0])
	assert.Equal(t, []string{"0", "1", "0"}, records[1])
	assert.Equal(t, []string{"2", "0", "1"}, records[3])
	assert.Equal(t, []string{"agent", "shifts", "preferred", "unwanted"}, records[4])
	assert.Equal(t, []string{"bob", "2", "1", "1"}, records[6])
}

func TestCSVGenerator_Infeasible(t *testing.T) {
	g, err := New(FormatCSV, config.ReportConfig{})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), infeasibleData())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "INFEASIBLE_FLOW", records[1][0])
	assert.Equal(t, "0", records[1][4])
}

func TestMarkdownGenerator(t *testing.T) {
	g, err := New(FormatMarkdown, config.ReportConfig{Author: "ops", CompanyName: "ACME"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), feasibleData(t))
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Night Shift Roster\n"))
	assert.Contains(t, md, "_ACME_")
	assert.Contains(t, md, "| Night | alice | bob |")
	assert.Contains(t, md, "| 2 |  | X* |")
	assert.Contains(t, md, "| bob | 2 | 1 | 1 |")
	assert.Contains(t, md, "- **Status:** `FEASIBLE`")
	assert.Contains(t, md, "*Generated by ops at 2026-03-01 12:00:00*")
}

func TestMarkdownGenerator_Infeasible(t *testing.T) {
	g, err := New(FormatMarkdown, config.ReportConfig{})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), infeasibleData())
	require.NoError(t, err)
	md := string(out)

	assert.Contains(t, md, "## Diagnostics")
	assert.Contains(t, md, "> achieved flow 1 of 2")
	assert.Contains(t, md, "- **Understaffed nights:** 0")
	assert.NotContains(t, md, "## Roster")
}

func TestExcelGenerator(t *testing.T) {
	g, err := New(FormatXLSX, config.ReportConfig{})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), feasibleData(t))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("PK")), "xlsx is a zip archive")

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetRoster, sheetLoads}, f.GetSheetList())

	v, err := f.GetCellValue(sheetRoster, "B1")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)

	v, err = f.GetCellValue(sheetRoster, "C4")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = f.GetCellValue(sheetLoads, "D3")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestExcelGenerator_InfeasibleHasSummaryOnly(t *testing.T) {
	g, err := New(FormatXLSX, config.ReportConfig{})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), infeasibleData())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary}, f.GetSheetList())
}

func TestPDFGenerator(t *testing.T) {
	cfgs := []config.ReportConfig{
		{},
		{PDF: config.PDFConfig{PageSize: "Letter", Orientation: "portrait", Margin: 15, FontSize: 10}},
	}
	for _, cfg := range cfgs {
		g, err := New(FormatPDF, cfg)
		require.NoError(t, err)

		for _, d := range []*Data{feasibleData(t), infeasibleData()} {
			out, err := g.Generate(context.Background(), d)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
		}
	}
}

func TestPDFGenerator_PageConfig(t *testing.T) {
	landscape := (&PDFGenerator{BaseGenerator{cfg: config.ReportConfig{}}}).pageConfig()
	require.NotNil(t, landscape.Margins)
	require.NotNil(t, landscape.Dimensions)
	assert.Equal(t, 10.0, landscape.Margins.Left)
	assert.Greater(t, landscape.Dimensions.Width, landscape.Dimensions.Height)

	portrait := (&PDFGenerator{BaseGenerator{cfg: config.ReportConfig{
		PDF: config.PDFConfig{PageSize: "Letter", Orientation: "portrait", Margin: 15},
	}}}).pageConfig()
	require.NotNil(t, portrait.Margins)
	require.NotNil(t, portrait.Dimensions)
	assert.Equal(t, 15.0, portrait.Margins.Left)
	assert.Less(t, portrait.Dimensions.Width, portrait.Dimensions.Height)
}
