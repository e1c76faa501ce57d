package estimator

import (
	"github.com/shopspring/decimal"

	"costdelta/internal/report"
)

func init() {
	// money fields are written as JSON numbers wherever a result is encoded
	decimal.MarshalJSONWithoutQuotes = true
}

// Reason explains why a row has no delta
type Reason string

const (
	// ReasonNoMapping marks a resource type the resource map does not cover
	ReasonNoMapping Reason = "no_mapping"
	// ReasonLookupFailed marks a mapped resource for which no price was found
	ReasonLookupFailed Reason = "lookup_failed"
)

// CostRow is the monthly cost change of one resource. Nil money fields mean
// no pricing data, which is distinct from a zero cost.
type CostRow struct {
	Stack    string           `json:"stack"`
	Resource string           `json:"resource"`
	Type     string           `json:"type"`
	Detail   string           `json:"detail"`
	Action   report.Action    `json:"action"`
	Before   *decimal.Decimal `json:"before"`
	After    *decimal.Decimal `json:"after"`
	Delta    *decimal.Decimal `json:"delta"`
	Reason   Reason           `json:"reason,omitempty"`
}

// Priced reports whether the row carries a delta
func (r CostRow) Priced() bool {
	return r.Delta != nil
}

// Result is the outcome of one estimation run
type Result struct {
	RunID      string          `json:"runId"`
	Region     string          `json:"region"`
	Rows       []CostRow       `json:"rows"`
	TotalDelta decimal.Decimal `json:"totalDelta"`
	// PricedCount counts rows with a delta
	PricedCount int `json:"pricedCount"`
	// FreeCount counts resources of free types, which get no row
	FreeCount int `json:"freeCount"`
	// UnpricedCount counts rows without a delta, whatever the reason
	UnpricedCount int `json:"unpricedCount"`
	// UnmappedCount counts rows without a pricing rule
	UnmappedCount int      `json:"unmappedCount"`
	UnmappedTypes []string `json:"unmappedTypes"`
	// Incomplete is set when the run ended before every lookup was made
	Incomplete bool `json:"incomplete"`
}

// Complete reports whether every changed, non-free resource was priced
func (r *Result) Complete() bool {
	return r.UnpricedCount == 0 && !r.Incomplete
}
