package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costdelta/internal/config"
	"costdelta/internal/logging"
)

// isolate runs the test in an empty directory and home, with fresh config state
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)

	viper.Reset()
	config.Config = &config.GlobalConfig{}
	t.Cleanup(func() {
		viper.Reset()
		logging.Configure(logging.LogConfig{Level: logging.INFO, Format: logging.Text})
	})
	return dir
}

func executeRoot(args ...string) (string, error) {
	rootCmd := NewRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	configYAML := []byte(`
aws:
  profile: test-profile
app:
  max_workers: 16
  log_level: WARN
`)

	tests := []struct {
		name     string
		args     []string
		env      map[string]string
		wantErr  bool
		validate func(t *testing.T, out string)
	}{
		{
			name: "version command should not require config",
			args: []string{"version"},
			validate: func(t *testing.T, out string) {
				assert.Contains(t, out, "costdelta ")
				assert.Empty(t, config.Config.Profile, "version command should not load config")
			},
		},
		{
			name:    "invalid command should return error",
			args:    []string{"invalid"},
			wantErr: true,
		},
		{
			name: "valid config file should be loaded",
			args: []string{"--config", "custom.yaml", "list", "regions"},
			validate: func(t *testing.T, out string) {
				assert.Equal(t, "test-profile", config.Config.Profile)
				assert.Equal(t, 16, config.Config.MaxWorkers)
				assert.Equal(t, "WARN", config.Config.LogLevel)
				assert.Equal(t, logging.WARN, logging.GetLevel())
			},
		},
		{
			name: "command line flags should override config",
			args: []string{
				"--config", "custom.yaml",
				"--profile", "override-profile",
				"--max-workers", "32",
				"--log-level", "debug",
				"list", "regions",
			},
			validate: func(t *testing.T, out string) {
				assert.Equal(t, "override-profile", config.Config.Profile)
				assert.Equal(t, 32, config.Config.MaxWorkers)
				assert.Equal(t, logging.DEBUG, logging.GetLevel())
			},
		},
		{
			name: "environment should override defaults",
			args: []string{"list", "regions"},
			env:  map[string]string{"COSTDELTA_AWS_PROFILE": "env-profile"},
			validate: func(t *testing.T, out string) {
				assert.Equal(t, "env-profile", config.Config.Profile)
			},
		},
		{
			name: "default values should be set when not specified",
			args: []string{"list", "regions"},
			validate: func(t *testing.T, out string) {
				assert.Equal(t, "default", config.Config.Profile)
				assert.Equal(t, 4, config.Config.MaxWorkers)
				assert.Equal(t, "text", config.Config.LogFormat)
				assert.Contains(t, out, "us-east-1")
			},
		},
		{
			name:    "invalid log level should fail",
			args:    []string{"--log-level", "loud", "list", "regions"},
			wantErr: true,
		},
		{
			name:    "missing config file should fail",
			args:    []string{"--config", "missing.yaml", "list", "regions"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), configYAML, 0644))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			out, err := executeRoot(tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validate != nil {
				tt.validate(t, out)
			}
		})
	}
}

func TestConfigFileInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("aws:\n  profile: local\n"), 0644))

	_, err := executeRoot("list", "regions")
	require.NoError(t, err)
	assert.Equal(t, "local", config.Config.Profile)
}

func TestSubcommands(t *testing.T) {
	rootCmd := NewRootCmd()

	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"estimate", "list", "init", "version"})
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
