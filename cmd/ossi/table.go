package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ossi-voice/ossi/internal/model"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    60,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func usageTable(stats model.UsageStats) string {
	return renderTable(
		[]string{"Model", "API Calls", "Tokens", "Est. Cost (USD)"},
		[][]string{{
			stats.Model,
			strconv.FormatInt(stats.TotalAPICalls, 10),
			strconv.FormatInt(stats.TotalTokensUsed, 10),
			fmt.Sprintf("$%.6f", stats.EstimatedCostUSD),
		}},
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	)
}

func classificationRows(c model.IntentClassification) [][]string {
	keywords := "none"
	if len(c.DetectedKeywords) > 0 {
		keywords = strings.Join(c.DetectedKeywords, ", ")
	}
	return [][]string{
		{"Intent", string(c.Intent)},
		{"Confidence", fmt.Sprintf("%.2f", c.Confidence)},
		{"Next action", c.NextAction},
		{"Keywords", keywords},
		{"Reasoning", c.Reasoning},
	}
}
