package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	PROGRESS // Special level that always displays
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case PROGRESS:
		return "PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level: %s", s)
	}
}

// Format represents the log output format
type Format int

const (
	Text Format = iota
	JSON
)

// ParseFormat converts a format name to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return Text, fmt.Errorf("invalid log format: %s", s)
	}
}

// Logger handles structured logging
type Logger struct {
	out      io.Writer
	level    Level
	format   Format
	logMutex sync.RWMutex
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  Level
	Format Format
}

var (
	// stdout is reserved for results, so logs go to stderr
	defaultLogger = &Logger{
		out:      os.Stderr,
		level:    INFO,
		format:   Text,
		logMutex: sync.RWMutex{},
	}

	// Color definitions
	debugColor    = color.New(color.FgCyan)
	infoColor     = color.New(color.FgGreen)
	warnColor     = color.New(color.FgYellow)
	errorColor    = color.New(color.FgRed)
	progressColor = color.New(color.FgBlue, color.Bold)
)

// Configure sets up the default logger
func Configure(config LogConfig) {
	defaultLogger.logMutex.Lock()
	defer defaultLogger.logMutex.Unlock()
	defaultLogger.level = config.Level
	defaultLogger.format = config.Format
}

// SetOutput redirects the default logger and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	defaultLogger.logMutex.Lock()
	defer defaultLogger.logMutex.Unlock()
	prev := defaultLogger.out
	defaultLogger.out = w
	return prev
}

// GetLevel returns the level of the default logger
func GetLevel() Level {
	defaultLogger.logMutex.RLock()
	defer defaultLogger.logMutex.RUnlock()
	return defaultLogger.level
}

type logEntry struct {
	Timestamp string      `json:"timestamp"`
	Level     string      `json:"level"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

func (l *Logger) log(level Level, msg string, data interface{}) {
	l.logMutex.Lock()
	defer l.logMutex.Unlock()

	// Always show PROGRESS level, otherwise respect level setting
	if level != PROGRESS && level < l.level {
		return
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05")

	if l.format == JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Message:   msg,
			Data:      data,
		}
		if err := json.NewEncoder(l.out).Encode(entry); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode log entry: %v\n", err)
		}
		return
	}

	var levelColor *color.Color
	switch level {
	case DEBUG:
		levelColor = debugColor
	case INFO:
		levelColor = infoColor
	case WARN:
		levelColor = warnColor
	case ERROR:
		levelColor = errorColor
	case PROGRESS:
		levelColor = progressColor
	default:
		levelColor = infoColor
	}

	levelStr := levelColor.Sprintf("%-5s", level.String())
	fmt.Fprintf(l.out, "%s %s: %s", timestamp, levelStr, msg)
	if data != nil {
		fmt.Fprintf(l.out, " %+v", data)
	}
	fmt.Fprintln(l.out)
}

func (l *Logger) Debug(msg string, data ...interface{}) {
	l.log(DEBUG, msg, firstOrNil(data))
}

func (l *Logger) Info(msg string, data ...interface{}) {
	l.log(INFO, msg, firstOrNil(data))
}

func (l *Logger) Warn(msg string, data ...interface{}) {
	l.log(WARN, msg, firstOrNil(data))
}

func (l *Logger) Error(msg string, err error, data ...interface{}) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	l.log(ERROR, msg, firstOrNil(data))
}

func (l *Logger) Progress(msg string, data interface{}) {
	l.log(PROGRESS, msg, data)
}

// firstOrNil returns the first element of data if present, nil otherwise
func firstOrNil(data []interface{}) interface{} {
	if len(data) > 0 {
		return data[0]
	}
	return nil
}

// EstimateStart logs the start of an estimation run
func (l *Logger) EstimateStart(runID, region string, stacks, resources int) {
	l.Info("Starting cost estimate", map[string]interface{}{
		"run_id":    runID,
		"region":    region,
		"stacks":    stacks,
		"resources": resources,
	})
}

// ResourceUnpriced logs a resource that could not be priced
func (l *Logger) ResourceUnpriced(stack, logicalID, resourceType, reason string) {
	data := map[string]interface{}{
		"stack":         stack,
		"logical_id":    logicalID,
		"resource_type": resourceType,
		"reason":        reason,
	}
	if reason == "no_mapping" {
		l.Warn("Resource type has no pricing rule", data)
		return
	}
	l.Debug("Resource could not be priced", data)
}

// EstimateComplete logs the completion of an estimation run
func (l *Logger) EstimateComplete(runID string, priced, free, unpriced int, total string) {
	l.Info("Cost estimate complete", map[string]interface{}{
		"run_id":      runID,
		"priced":      priced,
		"free":        free,
		"unpriced":    unpriced,
		"total_delta": total,
	})
}

// Default logger methods
func Debug(msg string, data ...interface{}) {
	defaultLogger.Debug(msg, data...)
}

func Info(msg string, data ...interface{}) {
	defaultLogger.Info(msg, data...)
}

func Warn(msg string, data ...interface{}) {
	defaultLogger.Warn(msg, data...)
}

func Error(msg string, err error, data ...interface{}) {
	defaultLogger.Error(msg, err, data...)
}

func Progress(msg string, data ...interface{}) {
	defaultLogger.Progress(msg, firstOrNil(data))
}

func EstimateStart(runID, region string, stacks, resources int) {
	defaultLogger.EstimateStart(runID, region, stacks, resources)
}

func ResourceUnpriced(stack, logicalID, resourceType, reason string) {
	defaultLogger.ResourceUnpriced(stack, logicalID, resourceType, reason)
}

func EstimateComplete(runID string, priced, free, unpriced int, total string) {
	defaultLogger.EstimateComplete(runID, priced, free, unpriced, total)
}
