package render

import (
	"fmt"
	"strings"

	"costdelta/internal/estimator"
)

// Markdown renders a result as a chat-ready markdown summary
func Markdown(result *estimator.Result, title string) string {
	var b strings.Builder

	if title != "" {
		fmt.Fprintf(&b, "### %s\n\n", escape(title))
	}

	total := result.TotalDelta
	fmt.Fprintf(&b, "**Estimated monthly delta: %s/month**\n\n", Delta(&total))

	if len(result.Rows) == 0 {
		b.WriteString("_No cost-relevant changes._\n")
	} else {
		b.WriteString("| Stack | Resource | Type | Change | Action | Before | After | Delta |\n")
		b.WriteString("|---|---|---|---|---|---|---|---|\n")
		for _, row := range result.Rows {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
				escape(row.Stack),
				escape(row.Resource),
				escape(row.Type),
				escape(row.Detail),
				row.Action,
				Money(row.Before),
				Money(row.After),
				RowDelta(row),
			)
		}
	}

	if note := Disclosure(result); note != "" {
		fmt.Fprintf(&b, "\n_%s_\n", note)
	}
	return b.String()
}

// Disclosure summarizes what the total does not cover
func Disclosure(result *estimator.Result) string {
	if result.Complete() && result.FreeCount == 0 {
		return ""
	}

	var parts []string

	counts := []string{fmt.Sprintf("%d priced", result.PricedCount)}
	if result.FreeCount > 0 {
		counts = append(counts, fmt.Sprintf("%d free", result.FreeCount))
	}
	if result.UnpricedCount > 0 {
		counts = append(counts, fmt.Sprintf("%d unpriced", result.UnpricedCount))
	}
	if result.FreeCount > 0 || result.UnpricedCount > 0 {
		parts = append(parts, strings.Join(counts, ", ")+".")
	}

	if len(result.UnmappedTypes) > 0 {
		parts = append(parts, fmt.Sprintf("No pricing rule for: %s.", strings.Join(result.UnmappedTypes, ", ")))
	}
	if result.Incomplete {
		parts = append(parts, "Estimate incomplete: the run ended before every price was looked up.")
	}
	return strings.Join(parts, " ")
}

// escape keeps cell text from breaking the table
func escape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
