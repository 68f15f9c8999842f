package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVGenerator writes the roster grid (one row per night, one 0/1 column per
// agent) followed by a per-agent load section.
type CSVGenerator struct {
	BaseGenerator
}

func (g *CSVGenerator) Format() Format { return FormatCSV }

// csvWriter обёртка для отслеживания ошибок
type csvWriter struct {
	w   *csv.Writer
	err error
}

func (cw *csvWriter) Write(record ...string) {
	if cw.err != nil {
		return
	}
	cw.err = cw.w.Write(record)
}

func (cw *csvWriter) Flush() error {
	if cw.err != nil {
		return cw.err
	}
	cw.w.Flush()
	return cw.w.Error()
}

func (g *CSVGenerator) Generate(_ context.Context, data *Data) ([]byte, error) {
	var buf bytes.Buffer
	cw := &csvWriter{w: csv.NewWriter(&buf)}

	if !data.Feasible {
		cw.Write("status", "reason", "required_flow", "achieved_flow", "understaffed", "underloaded")
		cw.Write(data.Status, data.Reason,
			strconv.FormatInt(data.RequiredFlow, 10),
			strconv.FormatInt(data.AchievedFlow, 10),
			joinInts(data.Understaffed),
			joinInts(data.Underloaded),
		)
	} else {
		agents := data.Request.Agents()

		header := make([]string, 0, agents+1)
		header = append(header, "night")
		for j := 0; j < agents; j++ {
			header = append(header, data.AgentName(j))
		}
		cw.Write(header...)

		for i, row := range data.Assignment {
			record := make([]string, 0, agents+1)
			record = append(record, strconv.Itoa(i))
			for _, cell := range row {
				record = append(record, strconv.Itoa(cell))
			}
			cw.Write(record...)
		}

		// Нагрузка
		cw.Write()
		cw.Write("agent", "shifts", "preferred", "unwanted")
		for _, load := range data.Summary().Agents {
			cw.Write(data.AgentName(load.Agent),
				strconv.Itoa(load.Shifts),
				strconv.Itoa(load.Preferred),
				strconv.Itoa(load.Unwanted),
			)
		}
	}

	if err := cw.Flush(); err != nil {
		return nil, fmt.Errorf("csv write error: %w", err)
	}
	return buf.Bytes(), nil
}
