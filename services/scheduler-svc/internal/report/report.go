// Package report renders rosters as CSV, Markdown, XLSX or PDF.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/apperror"
	"rostering/pkg/config"
	"rostering/services/scheduler-svc/internal/roster"
)

// Format is an output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts the format names used in configuration; "md" is an
// alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", apperror.Newf(apperror.CodeInvalidArgument, "unknown report format %q", s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Data is everything a generator needs to render one roster.
type Data struct {
	Title       string
	GeneratedAt time.Time

	// Agents are display names; missing entries render as "agent-j".
	Agents []string

	Request roster.Request

	Status       string
	Feasible     bool
	Reason       string
	Assignment   roster.Matrix
	RequiredFlow int64
	AchievedFlow int64
	Iterations   int
	Understaffed []int
	Underloaded  []int
	Duration     time.Duration
}

// FromAllocation builds report data from an in-process allocation.
func FromAllocation(req roster.Request, a *roster.Allocation) *Data {
	d := &Data{
		GeneratedAt:  time.Now(),
		Request:      req,
		Status:       a.Status.String(),
		Feasible:     a.Feasible(),
		Assignment:   a.Assignment,
		RequiredFlow: a.RequiredFlow,
		AchievedFlow: a.AchievedFlow,
		Iterations:   a.Iterations,
		Understaffed: a.Understaffed,
		Underloaded:  a.Underloaded,
		Duration:     a.Duration,
	}
	if a.Reason != nil {
		d.Reason = a.Reason.Message
	}
	return d
}

// FromResponse builds report data from a remote SchedulerService response.
func FromResponse(req roster.Request, resp *schedulerv1.AllocateResponse) *Data {
	d := &Data{
		GeneratedAt:  time.Now(),
		Request:      req,
		Status:       resp.Status,
		Feasible:     resp.Feasible,
		Reason:       resp.Reason,
		Assignment:   roster.Matrix(resp.AssignmentMatrix()),
		RequiredFlow: resp.RequiredFlow,
		AchievedFlow: resp.AchievedFlow,
		Iterations:   int(resp.Iterations),
		Understaffed: ints(resp.UnderstaffedPeriods),
		Underloaded:  ints(resp.UnderloadedAgents),
		Duration:     time.Duration(resp.ComputationTimeMs * float64(time.Millisecond)),
	}
	return d
}

func ints(in []int32) []int {
	if len(in) == 0 {
		return nil
	}
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// AgentName returns the display name of agent j.
func (d *Data) AgentName(j int) string {
	if j >= 0 && j < len(d.Agents) && d.Agents[j] != "" {
		return d.Agents[j]
	}
	return fmt.Sprintf("agent-%d", j)
}

// Summary returns per-agent loads; zero value when there is no roster.
func (d *Data) Summary() roster.Summary {
	if !d.Feasible || d.Assignment == nil {
		return roster.Summary{}
	}
	return roster.Summarize(d.Request, d.Assignment)
}

// OnDuty lists the agents assigned to period i.
func (d *Data) OnDuty(i int) []string {
	if i < 0 || i >= len(d.Assignment) {
		return nil
	}
	var names []string
	for j, cell := range d.Assignment[i] {
		if cell == 1 {
			name := d.AgentName(j)
			if !d.Request.Prefers(i, j) {
				name += unwantedMark
			}
			names = append(names, name)
		}
	}
	return names
}

// unwantedMark flags a shift the agent did not ask for.
const unwantedMark = "*"

// cellText renders one roster cell.
func (d *Data) cellText(i, j int) string {
	if d.Assignment[i][j] != 1 {
		return ""
	}
	if d.Request.Prefers(i, j) {
		return "X"
	}
	return "X" + unwantedMark
}

// Generator renders Data in one format.
type Generator interface {
	Generate(ctx context.Context, data *Data) ([]byte, error)
	Format() Format
}

// BaseGenerator carries the report settings shared by all generators.
type BaseGenerator struct {
	cfg config.ReportConfig
}

// GetTitle возвращает заголовок отчёта
func (b *BaseGenerator) GetTitle(data *Data) string {
	if data.Title != "" {
		return data.Title
	}
	return "Night Shift Roster"
}

// GetAuthor возвращает автора отчёта
func (b *BaseGenerator) GetAuthor() string {
	if b.cfg.Author != "" {
		return b.cfg.Author
	}
	return "scheduler-svc"
}

func (b *BaseGenerator) GetCompany() string {
	return b.cfg.CompanyName
}

// FormatDuration форматирует длительность
func (b *BaseGenerator) FormatDuration(d time.Duration) string {
	ms := float64(d) / float64(time.Millisecond)
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}
	return fmt.Sprintf("%.2f s", ms/1000)
}

// FormatTimestamp форматирует время
func (b *BaseGenerator) FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// New returns the generator for format.
func New(format Format, cfg config.ReportConfig) (Generator, error) {
	base := BaseGenerator{cfg: cfg}
	switch format {
	case FormatCSV:
		return &CSVGenerator{BaseGenerator: base}, nil
	case FormatMarkdown:
		return &MarkdownGenerator{BaseGenerator: base}, nil
	case FormatXLSX:
		return &ExcelGenerator{BaseGenerator: base}, nil
	case FormatPDF:
		return &PDFGenerator{BaseGenerator: base}, nil
	default:
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "unknown report format %q", format)
	}
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%d", x)
	}
	return strings.Join(parts, ", ")
}
