package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"costdelta/internal/report"
	"costdelta/internal/resourcemap"
)

func volumeRule() *resourcemap.PricingRule {
	return &resourcemap.PricingRule{
		Service: "AmazonEC2",
		Filters: []resourcemap.FilterSpec{
			{Field: "productFamily", Value: resourcemap.ValueSpec{Default: resourcemap.Literal("Storage")}},
			{Field: "volumeApiName", Value: resourcemap.ValueSpec{FromProperty: "VolumeType", Default: resourcemap.Literal("gp3")}},
			{Field: "iops", Value: resourcemap.ValueSpec{FromProperty: "Iops"}},
		},
	}
}

func TestResolveFilters(t *testing.T) {
	res := resource("Vol", "AWS::EC2::Volume", report.ActionUpdate,
		change("VolumeType", "gp2", "io2"),
		change("Iops", nil, 3000),
	)

	assert.Equal(t, []Filter{
		{Field: "productFamily", Value: "Storage"},
		{Field: "volumeApiName", Value: "gp2"},
	}, resolveFilters(volumeRule(), res, before))

	assert.Equal(t, []Filter{
		{Field: "productFamily", Value: "Storage"},
		{Field: "volumeApiName", Value: "io2"},
		{Field: "iops", Value: "3000"},
	}, resolveFilters(volumeRule(), res, after))
}

func TestResolveFiltersFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name  string
		props []report.PropertyChange
	}{
		{"property absent", nil},
		{"null value", []report.PropertyChange{change("VolumeType", nil, "null")}},
		{"empty string", []report.PropertyChange{change("VolumeType", nil, "")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resource("Vol", "AWS::EC2::Volume", report.ActionAdd, tt.props...)
			assert.Equal(t, []Filter{
				{Field: "productFamily", Value: "Storage"},
				{Field: "volumeApiName", Value: "gp3"},
			}, resolveFilters(volumeRule(), res, after))
		})
	}
}

func TestCacheKeyIgnoresFilterOrder(t *testing.T) {
	a := cacheKey("AmazonEC2", "us-east-1", []Filter{{"b", "2"}, {"a", "1"}})
	b := cacheKey("AmazonEC2", "us-east-1", []Filter{{"a", "1"}, {"b", "2"}})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, cacheKey("AmazonRDS", "us-east-1", []Filter{{"a", "1"}, {"b", "2"}}))
	assert.NotEqual(t, a, cacheKey("AmazonEC2", "eu-west-1", []Filter{{"a", "1"}, {"b", "2"}}))
	assert.NotEqual(t, a, cacheKey("AmazonEC2", "us-east-1", []Filter{{"a", "1"}}))
	// separators inside values cannot collide with another filter set
	assert.NotEqual(t,
		cacheKey("S", "r", []Filter{{"a", "1|b=2"}}),
		cacheKey("S", "r", []Filter{{"a", "1"}, {"b", "2"}}))
}

func TestCacheKeyDoesNotReorderInput(t *testing.T) {
	filters := []Filter{{"b", "2"}, {"a", "1"}}
	cacheKey("S", "r", filters)
	assert.Equal(t, "b", filters[0].Field)
}

func TestChangeDetail(t *testing.T) {
	tests := []struct {
		name  string
		props []report.PropertyChange
		want  string
	}{
		{"first changed filter property", []report.PropertyChange{change("VolumeType", "gp2", "gp3"), change("Iops", 100, 200)}, "gp2 → gp3"},
		{"skips unchanged property", []report.PropertyChange{change("VolumeType", "gp3", "gp3"), change("Iops", 100, 200)}, "100 → 200"},
		{"needs both sides", []report.PropertyChange{change("VolumeType", nil, "gp3")}, ""},
		{"ignores properties without filters", []report.PropertyChange{change("Size", 20, 40)}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resource("Vol", "AWS::EC2::Volume", report.ActionUpdate, tt.props...)
			assert.Equal(t, tt.want, changeDetail(volumeRule(), res))
		})
	}
}
