package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"costdelta/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override
const EnvPrefix = "COSTDELTA"

// parameterSource tracks where each parameter value came from
type parameterSource struct {
	Key    string
	Value  interface{}
	Source string
}

// flagNames maps config keys to the flag that overrides them
var flagNames = map[string]string{
	"aws.profile":             "profile",
	"app.max_workers":         "max-workers",
	"app.log_format":          "log-format",
	"app.log_level":           "log-level",
	"pricing.endpoint_region": "pricing-region",
	"pricing.selector":        "selector",
	"estimate.region":         "region",
	"estimate.resource_map":   "map",
	"estimate.timeout":        "timeout",
	"estimate.format":         "format",
	"notify.webhook_url":      "notify-webhook",
	"notify.title":            "title",
	"output.type":             "output",
	"output.dir":              "output-dir",
	"output.bucket":           "bucket",
	"output.bucket_region":    "bucket-region",
	"output.prefix":           "prefix",
}

// defaults holds the default for every configuration key
var defaults = map[string]interface{}{
	"aws.profile":                 "default",
	"app.max_workers":             4,
	"app.log_format":              "text",
	"app.log_level":               "INFO",
	"pricing.endpoint_region":     "us-east-1",
	"pricing.requests_per_second": DefaultRateLimitConfig.RequestsPerSecond,
	"pricing.max_retries":         DefaultRateLimitConfig.MaxRetries,
	"pricing.selector":            "first-nonzero",
	"estimate.region":             "",
	"estimate.resource_map":       "resource-map.yaml",
	"estimate.timeout":            "2m",
	"estimate.format":             "json",
	"notify.webhook_url":          "",
	"notify.title":                "Cost estimate",
	"output.type":                 "none",
	"output.dir":                  "output",
	"output.bucket":               "",
	"output.bucket_region":        "",
	"output.prefix":               "costdelta",
}

// Keys returns every configuration key in a stable order
func Keys() []string {
	return []string{
		"aws.profile",
		"app.max_workers",
		"app.log_format",
		"app.log_level",
		"pricing.endpoint_region",
		"pricing.requests_per_second",
		"pricing.max_retries",
		"pricing.selector",
		"estimate.region",
		"estimate.resource_map",
		"estimate.timeout",
		"estimate.format",
		"notify.webhook_url",
		"notify.title",
		"output.type",
		"output.dir",
		"output.bucket",
		"output.bucket_region",
		"output.prefix",
	}
}

// envKey returns the environment variable that overrides key
func envKey(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// getParameterSource determines where a parameter value came from (config file, env var, flag, or default)
func getParameterSource(key string, cmd *cobra.Command) parameterSource {
	value := viper.Get(key)

	flagName := flagNames[key]
	if flagName == "" {
		flagName = strings.ReplaceAll(key, ".", "-")
	}

	if cmd != nil {
		if f := cmd.Flags().Lookup(flagName); f != nil && f.Changed {
			return parameterSource{key, value, "command line flag"}
		}

		// Walk up the command chain checking persistent flags
		for current := cmd; current != nil; current = current.Parent() {
			if f := current.PersistentFlags().Lookup(flagName); f != nil && f.Changed {
				return parameterSource{key, value, "command line flag"}
			}
		}
	}

	if _, exists := os.LookupEnv(envKey(key)); exists {
		return parameterSource{key, value, "environment variable"}
	}

	if viper.GetViper().InConfig(key) {
		return parameterSource{key, value, "config file"}
	}

	return parameterSource{key, value, "default value"}
}

// LogConfigurationSources logs the source of each configuration parameter
func LogConfigurationSources(shouldLog bool, cmd *cobra.Command) {
	if !shouldLog {
		return
	}

	logging.Debug("Configuration parameter sources:", nil)
	for _, key := range Keys() {
		source := getParameterSource(key, cmd)
		value := source.Value
		// webhook URLs embed their credentials
		if key == "notify.webhook_url" && value != "" {
			value = "<redacted>"
		}
		logging.Debug(fmt.Sprintf("  %s = %v (from %s)", source.Key, value, source.Source), nil)
	}
}

// InitConfig initializes the Viper configuration
func InitConfig(shouldLog bool) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".costdelta"))
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	for _, key := range Keys() {
		viper.SetDefault(key, defaults[key])
	}

	// Try to read config file but don't error if not found
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if shouldLog {
			logging.Debug("No config file found, using defaults and environment variables", nil)
		}
	} else if shouldLog {
		logging.Debug("Loaded config file", map[string]interface{}{
			"path": viper.ConfigFileUsed(),
		})
	}

	return nil
}

// SetConfigFile sets a custom config file path and reloads the configuration
func SetConfigFile(configFile string) error {
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// BindFlags binds command flags to their config keys
func BindFlags(cmd *cobra.Command, keys ...string) error {
	for _, key := range keys {
		name, ok := flagNames[key]
		if !ok {
			return fmt.Errorf("no flag registered for config key %s", key)
		}
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f == nil {
			return fmt.Errorf("command %s has no flag --%s", cmd.Name(), name)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Load populates the global config from viper
func Load() {
	Config.Profile = viper.GetString("aws.profile")
	Config.LogFormat = viper.GetString("app.log_format")
	Config.LogLevel = viper.GetString("app.log_level")
	if workers := viper.GetInt("app.max_workers"); workers > 0 {
		Config.MaxWorkers = workers
	}
}

// DefaultConfigContent is the commented config.yaml written by init config
const DefaultConfigContent = `# costdelta configuration file
# Every key can be overridden with a COSTDELTA_ environment variable,
# e.g. COSTDELTA_ESTIMATE_REGION=eu-west-1

# AWS Configuration
aws:
  profile: default  # AWS profile used for Price List and S3 calls

# Application Configuration
app:
  max_workers: 4  # Concurrent price lookups when prefetching
  log_format: text  # Log output format (text or json)
  log_level: INFO  # Set logging level (DEBUG, INFO, WARN, ERROR)

# Price List API
pricing:
  endpoint_region: us-east-1  # Region hosting the Price List API (us-east-1 or ap-south-1)
  requests_per_second: 5
  max_retries: 3
  selector: first-nonzero  # Quote selection (first-nonzero, first or max)

# Estimate Command Configuration
estimate:
  region: ""  # Region to price resources in, e.g. us-east-1
  resource_map: resource-map.yaml  # Resource map file
  timeout: 2m  # Give up on remaining lookups after this long
  format: json  # Output format (json, table or markdown)

# Chat notification
notify:
  webhook_url: ""  # Post the markdown summary here when set
  title: Cost estimate

# Result sync
output:
  type: none  # none, filesystem or s3
  dir: output  # Base directory when type=filesystem
  bucket: ""  # S3 bucket name (required when type=s3)
  bucket_region: ""  # S3 bucket region (required when type=s3)
  prefix: costdelta  # Key prefix when type=s3
`
