package render

import (
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"costdelta/internal/estimator"
)

var (
	increaseColor = color.New(color.FgRed)
	decreaseColor = color.New(color.FgGreen)
	missingColor  = color.New(color.FgYellow)
)

// Table writes a result as a text table
func Table(w io.Writer, result *estimator.Result) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stack", "Resource", "Type", "Change", "Action", "Before", "After", "Delta"})

	for _, row := range result.Rows {
		tw.AppendRow(table.Row{
			row.Stack,
			row.Resource,
			row.Type,
			row.Detail,
			string(row.Action),
			Money(row.Before),
			Money(row.After),
			colorDelta(row.Delta, RowDelta(row)),
		})
	}

	total := result.TotalDelta
	tw.AppendFooter(table.Row{"", "", "", "", "", "", "Total", colorDelta(&total, Delta(&total))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	if note := Disclosure(result); note != "" {
		tw.SetCaption(note)
	}

	tw.Render()
	return nil
}

func colorDelta(d *decimal.Decimal, s string) string {
	switch {
	case d == nil:
		return missingColor.Sprint(s)
	case d.Round(2).IsPositive():
		return increaseColor.Sprint(s)
	case d.Round(2).IsNegative():
		return decreaseColor.Sprint(s)
	}
	return s
}
