package estimator

import (
	"fmt"
	"sort"
	"strings"

	"costdelta/internal/report"
	"costdelta/internal/resourcemap"
)

// direction selects which side of a property change feeds a query
type direction int

const (
	before direction = iota
	after
)

func (d direction) String() string {
	if d == before {
		return "before"
	}
	return "after"
}

// resolveFilters turns the rule's filter specs into concrete filters for one
// direction. Filters with neither a property value nor a default are omitted.
func resolveFilters(rule *resourcemap.PricingRule, res report.ResourceChange, dir direction) []Filter {
	filters := make([]Filter, 0, len(rule.Filters))
	for _, spec := range rule.Filters {
		if value, ok := resolveValue(spec.Value, res, dir); ok {
			filters = append(filters, Filter{Field: spec.Field, Value: value})
		}
	}
	return filters
}

func resolveValue(spec resourcemap.ValueSpec, res report.ResourceChange, dir direction) (string, bool) {
	if spec.FromProperty != "" {
		if value := propertyValue(res, spec.FromProperty, dir); !value.IsEmpty() {
			return value.String(), true
		}
	}
	if spec.Default != nil && *spec.Default != "" {
		return *spec.Default, true
	}
	return "", false
}

// propertyValue returns the old or new value of the named property, or nil
func propertyValue(res report.ResourceChange, name string, dir direction) *report.Value {
	prop, ok := res.Property(name)
	if !ok {
		return nil
	}
	if dir == before {
		return prop.OldValue
	}
	return prop.NewValue
}

// cacheKey canonicalizes a query: filter order does not matter
func cacheKey(service, region string, filters []Filter) string {
	sorted := make([]Filter, len(filters))
	copy(sorted, filters)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Field != sorted[j].Field {
			return sorted[i].Field < sorted[j].Field
		}
		return sorted[i].Value < sorted[j].Value
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%q|%q", service, region)
	for _, f := range sorted {
		fmt.Fprintf(&b, "|%q=%q", f.Field, f.Value)
	}
	return b.String()
}

// changeDetail describes the first property-driven filter whose value changed
func changeDetail(rule *resourcemap.PricingRule, res report.ResourceChange) string {
	for _, spec := range rule.PropertyFilters() {
		prop, ok := res.Property(spec.Value.FromProperty)
		if !ok || prop.OldValue.IsEmpty() || prop.NewValue.IsEmpty() {
			continue
		}
		oldValue, newValue := prop.OldValue.String(), prop.NewValue.String()
		if oldValue != newValue {
			return oldValue + " → " + newValue
		}
	}
	return ""
}
