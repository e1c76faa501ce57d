package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReport = `{
  "stacks": [
    {
      "name": "Net",
      "resources": [
        {
          "logicalId": "WebServerA1B2C3D4",
          "type": "AWS::EC2::Instance",
          "action": "UPDATE",
          "properties": [
            {"name": "InstanceType", "oldValue": "t3.small", "newValue": "t3.large", "impact": "will replace"},
            {"name": "Tags", "oldValue": null, "newValue": [{"Key": "team", "Value": "infra"}]},
            {"name": "VolumeSize", "oldValue": 20, "newValue": 40}
          ]
        }
      ]
    },
    {"name": "Empty", "resources": []}
  ]
}`

func TestDecode(t *testing.T) {
	cr, err := Decode(strings.NewReader(sampleReport))
	require.NoError(t, err)
	require.NoError(t, cr.Validate())

	require.Len(t, cr.Stacks, 2)
	assert.Equal(t, 1, cr.ResourceCount())
	assert.True(t, cr.Stacks[0].HasChanges())
	assert.False(t, cr.Stacks[1].HasChanges())

	res := cr.Stacks[0].Resources[0]
	assert.Equal(t, ActionUpdate, res.Action)

	prop, ok := res.Property("InstanceType")
	require.True(t, ok)
	assert.Equal(t, "t3.small", prop.OldValue.String())
	assert.Equal(t, "t3.large", prop.NewValue.String())
	assert.Equal(t, "will replace", prop.Impact)

	tags, ok := res.Property("Tags")
	require.True(t, ok)
	assert.True(t, tags.OldValue.IsEmpty())
	assert.Equal(t, `[{"Key":"team","Value":"infra"}]`, tags.NewValue.String())

	size, ok := res.Property("VolumeSize")
	require.True(t, ok)
	assert.Equal(t, "20", size.OldValue.String())
	assert.Equal(t, "40", size.NewValue.String())

	_, ok = res.Property("Missing")
	assert.False(t, ok)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("   "))
	assert.Error(t, err)

	_, err = Decode(strings.NewReader(`{"stacks": [`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		report  ChangeReport
		wantErr string
	}{
		{
			name:    "missing stack name",
			report:  ChangeReport{Stacks: []Stack{{Name: ""}}},
			wantErr: "has no name",
		},
		{
			name: "missing logical id",
			report: ChangeReport{Stacks: []Stack{{Name: "A", Resources: []ResourceChange{
				{Type: "AWS::S3::Bucket", Action: ActionAdd},
			}}}},
			wantErr: "no logical id",
		},
		{
			name: "duplicate logical id",
			report: ChangeReport{Stacks: []Stack{{Name: "A", Resources: []ResourceChange{
				{LogicalID: "B", Type: "AWS::S3::Bucket", Action: ActionAdd},
				{LogicalID: "B", Type: "AWS::S3::Bucket", Action: ActionRemove},
			}}}},
			wantErr: "duplicate logical id",
		},
		{
			name: "missing type",
			report: ChangeReport{Stacks: []Stack{{Name: "A", Resources: []ResourceChange{
				{LogicalID: "B", Action: ActionAdd},
			}}}},
			wantErr: "has no type",
		},
		{
			name: "unknown action",
			report: ChangeReport{Stacks: []Stack{{Name: "A", Resources: []ResourceChange{
				{LogicalID: "B", Type: "AWS::S3::Bucket", Action: "REPLACE"},
			}}}},
			wantErr: "unknown action",
		},
		{
			name: "unnamed property",
			report: ChangeReport{Stacks: []Stack{{Name: "A", Resources: []ResourceChange{
				{LogicalID: "B", Type: "AWS::S3::Bucket", Action: ActionAdd, Properties: []PropertyChange{{}}},
			}}}},
			wantErr: "has no name",
		},
		{
			name: "same logical id in different stacks",
			report: ChangeReport{Stacks: []Stack{
				{Name: "A", Resources: []ResourceChange{{LogicalID: "B", Type: "T", Action: ActionAdd}}},
				{Name: "C", Resources: []ResourceChange{{LogicalID: "B", Type: "T", Action: ActionAdd}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.report.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValueIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		value *Value
		empty bool
	}{
		{"nil", nil, true},
		{"json null", &Value{raw: []byte("null")}, true},
		{"empty string", NewValue(""), true},
		{"null string", NewValue("null"), true},
		{"undefined string", NewValue("undefined"), true},
		{"zero", NewValue(0), false},
		{"false", NewValue(false), false},
		{"string", NewValue("gp3"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.empty, tt.value.IsEmpty())
		})
	}
}

func TestCleanLogicalID(t *testing.T) {
	assert.Equal(t, "WebServer", CleanLogicalID("WebServerA1B2C3D4"))
	assert.Equal(t, "Vpc", CleanLogicalID("Vpc8378EB38"))
	assert.Equal(t, "Bucket", CleanLogicalID("Bucket"))
	assert.Equal(t, "Queuea1b2c3d4", CleanLogicalID("Queuea1b2c3d4"))
	assert.Equal(t, "DEADBEEF", CleanLogicalID("DEADBEEF"))
	assert.Equal(t, "ABCDEF0123", CleanLogicalID("ABCDEF0123"))
	assert.Equal(t, "Subnet1ABCDEF01", CleanLogicalID("Subnet1ABCDEF01"))
	assert.Equal(t, "Server", CleanLogicalID("Server12345678"))
	assert.Equal(t, "PublicSubnet1Subnet", CleanLogicalID("PublicSubnet1Subnet8BCA10E0"))
}

func TestShortType(t *testing.T) {
	assert.Equal(t, "EC2::Instance", ShortType("AWS::EC2::Instance"))
	assert.Equal(t, "Compute::Instance", ShortType("Compute::Instance"))
	assert.Equal(t, "Custom", ShortType("Custom"))
}
