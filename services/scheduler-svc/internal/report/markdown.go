package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// MarkdownGenerator renders a roster as a GitHub-flavoured Markdown document.
type MarkdownGenerator struct {
	BaseGenerator
}

func (g *MarkdownGenerator) Format() Format { return FormatMarkdown }

func (g *MarkdownGenerator) Generate(_ context.Context, data *Data) ([]byte, error) {
	var buf bytes.Buffer

	g.writeHeader(&buf, data)
	if data.Feasible {
		g.writeRoster(&buf, data)
		g.writeLoads(&buf, data)
	} else {
		g.writeDiagnostics(&buf, data)
	}
	g.writeFooter(&buf, data)

	return buf.Bytes(), nil
}

func (g *MarkdownGenerator) writeHeader(buf *bytes.Buffer, data *Data) {
	fmt.Fprintf(buf, "# %s\n\n", g.GetTitle(data))
	if company := g.GetCompany(); company != "" {
		fmt.Fprintf(buf, "_%s_\n\n", company)
	}

	req := data.Request
	buf.WriteString("## Problem\n\n")
	fmt.Fprintf(buf, "- **Nights:** %d\n", req.Periods())
	fmt.Fprintf(buf, "- **Sysadmins:** %d\n", req.Agents())
	fmt.Fprintf(buf, "- **Sysadmins per night:** %d\n", req.SysadminsPerNight)
	fmt.Fprintf(buf, "- **Max unwanted shifts:** %d\n", req.MaxUnwantedShifts)
	fmt.Fprintf(buf, "- **Min shifts:** %d\n", req.MinShifts)
	buf.WriteString("\n")

	buf.WriteString("## Result\n\n")
	fmt.Fprintf(buf, "- **Status:** `%s`\n", data.Status)
	fmt.Fprintf(buf, "- **Flow:** %d / %d\n", data.AchievedFlow, data.RequiredFlow)
	fmt.Fprintf(buf, "- **Augmenting paths:** %d\n", data.Iterations)
	fmt.Fprintf(buf, "- **Computation time:** %s\n", g.FormatDuration(data.Duration))
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeRoster(buf *bytes.Buffer, data *Data) {
	agents := data.Request.Agents()

	buf.WriteString("## Roster\n\n")
	buf.WriteString("| Night |")
	for j := 0; j < agents; j++ {
		fmt.Fprintf(buf, " %s |", escape(data.AgentName(j)))
	}
	buf.WriteString("\n|------:|")
	buf.WriteString(strings.Repeat(":---:|", agents))
	buf.WriteString("\n")

	for i := range data.Assignment {
		fmt.Fprintf(buf, "| %d |", i)
		for j := 0; j < agents; j++ {
			fmt.Fprintf(buf, " %s |", escape(data.cellText(i, j)))
		}
		buf.WriteString("\n")
	}
	fmt.Fprintf(buf, "\n`X` on duty, `X%s` on duty on an unwanted night.\n\n", unwantedMark)
}

func (g *MarkdownGenerator) writeLoads(buf *bytes.Buffer, data *Data) {
	s := data.Summary()

	buf.WriteString("## Load per sysadmin\n\n")
	buf.WriteString("| Sysadmin | Shifts | Preferred | Unwanted |\n")
	buf.WriteString("|----------|-------:|----------:|---------:|\n")
	for _, load := range s.Agents {
		fmt.Fprintf(buf, "| %s | %d | %d | %d |\n",
			escape(data.AgentName(load.Agent)), load.Shifts, load.Preferred, load.Unwanted)
	}
	fmt.Fprintf(buf, "\nTotal shifts: %d, unwanted: %d, load range: %d..%d\n\n",
		s.TotalShifts, s.TotalUnwanted, s.MinLoad, s.MaxLoad)
}

func (g *MarkdownGenerator) writeDiagnostics(buf *bytes.Buffer, data *Data) {
	buf.WriteString("## Diagnostics\n\n")
	if data.Reason != "" {
		fmt.Fprintf(buf, "> %s\n\n", data.Reason)
	}
	if len(data.Understaffed) > 0 {
		fmt.Fprintf(buf, "- **Understaffed nights:** %s\n", joinInts(data.Understaffed))
	}
	if len(data.Underloaded) > 0 {
		names := make([]string, len(data.Underloaded))
		for k, j := range data.Underloaded {
			names[k] = data.AgentName(j)
		}
		fmt.Fprintf(buf, "- **Sysadmins below minimum:** %s\n", strings.Join(names, ", "))
	}
	buf.WriteString("\n")
}

func (g *MarkdownGenerator) writeFooter(buf *bytes.Buffer, data *Data) {
	fmt.Fprintf(buf, "---\n\n*Generated by %s at %s*\n", g.GetAuthor(), g.FormatTimestamp(data.GeneratedAt))
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
