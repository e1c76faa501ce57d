package estimator

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costdelta/internal/report"
)

func TestResultMoneyIsJSONNumbers(t *testing.T) {
	after := dec("6.132")
	result := &Result{
		Rows: []CostRow{
			{Resource: "Web", Action: report.ActionAdd, After: &after, Delta: &after},
			{Resource: "Bucket", Action: report.ActionAdd, Reason: ReasonNoMapping},
		},
		TotalDelta:    dec("6.132"),
		UnmappedTypes: []string{},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 6.132, decoded["totalDelta"])

	rows := decoded["rows"].([]interface{})
	first := rows[0].(map[string]interface{})
	assert.Equal(t, 6.132, first["after"])
	assert.Nil(t, first["before"])
	assert.Nil(t, rows[1].(map[string]interface{})["delta"])
}

func TestRowAndResultStatus(t *testing.T) {
	d := dec("1")
	assert.True(t, CostRow{Delta: &d}.Priced())
	assert.False(t, CostRow{Reason: ReasonLookupFailed}.Priced())

	assert.True(t, (&Result{PricedCount: 1}).Complete())
	assert.False(t, (&Result{PricedCount: 1, UnpricedCount: 1}).Complete())
	assert.False(t, (&Result{Incomplete: true}).Complete())
}
