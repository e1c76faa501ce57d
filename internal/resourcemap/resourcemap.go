// Package resourcemap loads the declarative table that tells the estimator how
// to price each resource type.
package resourcemap

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only resource map format version understood
const CurrentVersion = 1

// ResourceMap maps resource types to pricing rules
type ResourceMap struct {
	Version   int                     `yaml:"version" json:"version"`
	Free      []string                `yaml:"free,omitempty" json:"free,omitempty"`
	Resources map[string]*PricingRule `yaml:"resources" json:"resources"`

	free map[string]bool
}

// PricingRule describes how to query the price of one resource type
type PricingRule struct {
	// Service is the pricing service code, e.g. AmazonEC2
	Service string `yaml:"service" json:"service"`
	// Unit is a label for the queried price unit, e.g. Hrs or GB-Mo
	Unit               string       `yaml:"unit,omitempty" json:"unit,omitempty"`
	HourlyMultiplier   *float64     `yaml:"hourlyMultiplier,omitempty" json:"hourlyMultiplier,omitempty"`
	QuantityMultiplier *float64     `yaml:"quantityMultiplier,omitempty" json:"quantityMultiplier,omitempty"`
	Filters            []FilterSpec `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// FilterSpec is one pricing filter of a rule
type FilterSpec struct {
	Field string    `yaml:"field" json:"field"`
	Value ValueSpec `yaml:"value" json:"value"`
}

// ValueSpec is either a literal default or a reference to a changed property
// with an optional fallback.
type ValueSpec struct {
	FromProperty string  `yaml:"fromProperty,omitempty" json:"fromProperty,omitempty"`
	Default      *string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Load reads and validates a resource map file. YAML and JSON are both accepted.
func Load(path string) (*ResourceMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource map: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a resource map document
func Parse(data []byte) (*ResourceMap, error) {
	var rm ResourceMap
	if err := yaml.Unmarshal(data, &rm); err != nil {
		return nil, fmt.Errorf("failed to parse resource map: %w", err)
	}
	if err := rm.Validate(); err != nil {
		return nil, err
	}
	return &rm, nil
}

// Validate checks the map invariants and indexes the free list
func (rm *ResourceMap) Validate() error {
	if rm == nil {
		return fmt.Errorf("resource map is nil")
	}
	if rm.Version != CurrentVersion {
		return fmt.Errorf("unsupported resource map version %d", rm.Version)
	}
	if rm.Resources == nil {
		rm.Resources = make(map[string]*PricingRule)
	}

	for _, resourceType := range rm.Types() {
		if err := rm.Resources[resourceType].validate(); err != nil {
			return fmt.Errorf("resource %q: %w", resourceType, err)
		}
	}

	rm.free = make(map[string]bool, len(rm.Free))
	for _, t := range rm.Free {
		if t == "" {
			return fmt.Errorf("free list contains an empty resource type")
		}
		rm.free[t] = true
	}
	return nil
}

func (r *PricingRule) validate() error {
	if r == nil {
		return fmt.Errorf("pricing rule is empty")
	}
	if r.Service == "" {
		return fmt.Errorf("service is required")
	}
	if r.HourlyMultiplier != nil && r.QuantityMultiplier != nil {
		return fmt.Errorf("hourlyMultiplier and quantityMultiplier are mutually exclusive")
	}
	if r.HourlyMultiplier != nil && *r.HourlyMultiplier < 0 {
		return fmt.Errorf("hourlyMultiplier must not be negative")
	}
	if r.QuantityMultiplier != nil && *r.QuantityMultiplier < 0 {
		return fmt.Errorf("quantityMultiplier must not be negative")
	}
	for i, f := range r.Filters {
		if f.Field == "" {
			return fmt.Errorf("filter %d has no field", i)
		}
		if f.Value.FromProperty == "" && f.Value.Default == nil {
			return fmt.Errorf("filter %q needs a default or a fromProperty", f.Field)
		}
	}
	return nil
}

// Rule returns the pricing rule for a resource type
func (rm *ResourceMap) Rule(resourceType string) (*PricingRule, bool) {
	rule, ok := rm.Resources[resourceType]
	return rule, ok && rule != nil
}

// IsFree reports whether the resource type is known to carry no direct cost
func (rm *ResourceMap) IsFree(resourceType string) bool {
	if rm.free == nil {
		for _, t := range rm.Free {
			if t == resourceType {
				return true
			}
		}
		return false
	}
	return rm.free[resourceType]
}

// Types returns the mapped resource types in sorted order
func (rm *ResourceMap) Types() []string {
	types := make([]string, 0, len(rm.Resources))
	for t := range rm.Resources {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Multiplier returns the factor turning a unit price into a monthly cost,
// or nil when the unit price already is the monthly cost.
func (r *PricingRule) Multiplier() *decimal.Decimal {
	var m *float64
	switch {
	case r.HourlyMultiplier != nil:
		m = r.HourlyMultiplier
	case r.QuantityMultiplier != nil:
		m = r.QuantityMultiplier
	default:
		return nil
	}
	d := decimal.NewFromFloat(*m)
	return &d
}

// PropertyFilters returns the filters that read from a changed property, in rule order
func (r *PricingRule) PropertyFilters() []FilterSpec {
	var out []FilterSpec
	for _, f := range r.Filters {
		if f.Value.FromProperty != "" {
			out = append(out, f)
		}
	}
	return out
}

// Literal is a helper for building ValueSpec defaults
func Literal(s string) *string {
	return &s
}
