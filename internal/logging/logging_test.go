package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, cfg LogConfig) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	prevLevel := GetLevel()
	prevFormat := defaultLogger.format
	Configure(cfg)
	t.Cleanup(func() {
		SetOutput(prev)
		Configure(LogConfig{Level: prevLevel, Format: prevFormat})
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"", INFO, false},
		{"warning", WARN, false},
		{"error", ERROR, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, JSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Text, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLogs(t, LogConfig{Level: WARN, Format: Text})

	Debug("hidden debug")
	Info("hidden info")
	Warn("visible warn")
	Progress("always shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "always shown")
}

func TestJSONFormat(t *testing.T) {
	buf := captureLogs(t, LogConfig{Level: DEBUG, Format: JSON})

	EstimateStart("run-1", "us-east-1", 2, 5)

	var entry struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Starting cost estimate", entry.Message)
	assert.Equal(t, "run-1", entry.Data["run_id"])
	assert.Equal(t, float64(5), entry.Data["resources"])
}

func TestResourceUnpriced(t *testing.T) {
	buf := captureLogs(t, LogConfig{Level: WARN, Format: JSON})

	ResourceUnpriced("Net", "Bucket", "AWS::S3::Bucket", "no_mapping")
	ResourceUnpriced("Net", "Db", "AWS::RDS::DBInstance", "lookup_failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "no pricing rule")
}

func TestErrorIncludesCause(t *testing.T) {
	buf := captureLogs(t, LogConfig{Level: DEBUG, Format: Text})

	Error("Upload failed", assert.AnError, map[string]interface{}{"bucket": "b"})
	assert.Contains(t, buf.String(), assert.AnError.Error())
	assert.Contains(t, buf.String(), "bucket")
}
