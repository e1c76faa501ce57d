// Package render presents estimation results as markdown, text tables and JSON.
package render

import (
	"github.com/shopspring/decimal"

	"costdelta/internal/estimator"
)

// NotAvailable is shown for money values without pricing data
const NotAvailable = "n/a"

// Money formats a monthly cost rounded to cents, or n/a when absent
func Money(d *decimal.Decimal) string {
	if d == nil {
		return NotAvailable
	}
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Delta formats a cost change with an explicit sign
func Delta(d *decimal.Decimal) string {
	if d == nil {
		return NotAvailable
	}
	rounded := d.Round(2)
	switch {
	case rounded.IsPositive():
		return "+$" + rounded.StringFixed(2)
	case rounded.IsNegative():
		return "-$" + rounded.Abs().StringFixed(2)
	default:
		return "$0.00"
	}
}

// RowDelta formats the delta of a row, saying why an unpriced row has none
func RowDelta(row estimator.CostRow) string {
	if row.Priced() {
		return Delta(row.Delta)
	}
	switch row.Reason {
	case estimator.ReasonNoMapping:
		return NotAvailable + " (no rule)"
	case estimator.ReasonLookupFailed:
		return NotAvailable + " (no price)"
	}
	return NotAvailable
}
