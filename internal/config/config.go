package config

import "runtime"

// GlobalConfig holds the global configuration for the application
type GlobalConfig struct {
	// Profile is the AWS profile used for Price List and S3 calls
	Profile string

	// MaxWorkers bounds the concurrent price prefetch
	MaxWorkers int

	// LogFormat is the format for logging
	LogFormat string

	// LogLevel is the minimum level that gets logged
	LogLevel string
}

// Config is the global configuration instance
var Config = &GlobalConfig{
	Profile:    "default",
	MaxWorkers: runtime.NumCPU(),
	LogFormat:  "text",
	LogLevel:   "INFO",
}
