package estimator

import (
	"context"

	"github.com/shopspring/decimal"
)

// Filter is one resolved pricing filter
type Filter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Quote is the unit price of the product matched by a lookup
type Quote struct {
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Unit        string          `json:"unit"`
	Description string          `json:"description"`
}

// PriceLookup queries an external pricing service. Any error, including
// no product matching the filters, means there is no quote.
type PriceLookup interface {
	Lookup(ctx context.Context, service string, filters []Filter, region string) (*Quote, error)
}

// LookupFunc adapts a function to PriceLookup
type LookupFunc func(ctx context.Context, service string, filters []Filter, region string) (*Quote, error)

// Lookup calls f
func (f LookupFunc) Lookup(ctx context.Context, service string, filters []Filter, region string) (*Quote, error) {
	return f(ctx, service, filters, region)
}
