// Package output stores estimation results on the local filesystem or in S3.
package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"

	internalaws "costdelta/internal/aws"
	"costdelta/internal/estimator"
	"costdelta/internal/logging"
)

const (
	defaultMaxRetries        = 3
	defaultRetryDelay        = 2 * time.Second
	defaultPartSize          = 5 * 1024 * 1024 // 5MB
	defaultConcurrentUploads = 5
	defaultOutputDir         = "output"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxRetries int
	RetryDelay time.Duration
}

// UploadConfig holds upload configuration
type UploadConfig struct {
	PartSize        int64
	ConcurrentParts int
}

// Type represents the output type
type Type string

const (
	// None disables result storage
	None Type = "none"
	// FileSystem represents local filesystem output
	FileSystem Type = "filesystem"
	// S3 represents S3 bucket output
	S3 Type = "s3"
)

// ParseType validates an output type name. An empty name means None.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(s)); t {
	case "":
		return None, nil
	case None, FileSystem, S3:
		return t, nil
	default:
		return "", fmt.Errorf("invalid output type %q (must be none, filesystem or s3)", s)
	}
}

// Config holds output configuration
type Config struct {
	Type         Type
	OutputDir    string
	Bucket       string
	BucketRegion string
	Prefix       string
	Profile      string
	Retry        *RetryConfig
	Upload       *UploadConfig
}

// Writer stores results under a date-partitioned key named after the run
type Writer struct {
	config   Config
	uploader s3manageriface.UploaderAPI
	progress io.Writer
	now      func() time.Time
}

// Option configures a Writer
type Option func(*Writer)

// WithUploader sets the S3 uploader instead of creating one from a session
func WithUploader(u s3manageriface.UploaderAPI) Option {
	return func(w *Writer) {
		w.uploader = u
	}
}

// WithProgressOutput shows upload progress on out
func WithProgressOutput(out io.Writer) Option {
	return func(w *Writer) {
		w.progress = out
	}
}

// WithClock sets the time source used for the date path
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a new output writer with default settings
func NewWriter(config Config, opts ...Option) *Writer {
	if config.Type == "" {
		config.Type = None
	}
	if config.Retry == nil {
		config.Retry = &RetryConfig{
			MaxRetries: defaultMaxRetries,
			RetryDelay: defaultRetryDelay,
		}
	}
	if config.Upload == nil {
		config.Upload = &UploadConfig{
			PartSize:        defaultPartSize,
			ConcurrentParts: defaultConcurrentUploads,
		}
	}
	if config.Type == FileSystem && config.OutputDir == "" {
		config.OutputDir = defaultOutputDir
	}

	w := &Writer{
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Enabled reports whether results are stored at all
func (w *Writer) Enabled() bool {
	return w.config.Type != None
}

// key returns <YYYY>/<MM>/<DD>/<runID>.json below the prefix
func (w *Writer) key(runID string, t time.Time) string {
	name := runID + ".json"
	datePath := t.UTC().Format("2006/01/02")

	if w.config.Type == FileSystem {
		return filepath.Join(w.config.OutputDir, filepath.FromSlash(datePath), name)
	}
	prefix := strings.Trim(w.config.Prefix, "/")
	if prefix == "" {
		return path.Join(datePath, name)
	}
	return path.Join(prefix, datePath, name)
}

// Write stores the result and returns where it was written
func (w *Writer) Write(ctx context.Context, result *estimator.Result) (string, error) {
	if !w.Enabled() {
		return "", nil
	}
	if result.RunID == "" {
		return "", fmt.Errorf("result has no run ID")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	key := w.key(result.RunID, w.now())

	switch w.config.Type {
	case FileSystem:
		if err := writeToFileSystem(key, data); err != nil {
			return "", err
		}
		return key, nil
	case S3:
		if err := w.writeToS3WithRetry(ctx, key, data); err != nil {
			return "", err
		}
		return fmt.Sprintf("s3://%s/%s", w.config.Bucket, key), nil
	default:
		return "", fmt.Errorf("unsupported output type: %s", w.config.Type)
	}
}

// writeToFileSystem writes data to the local filesystem
func writeToFileSystem(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return nil
}

// writeToS3WithRetry writes data to an S3 bucket with retry logic
func (w *Writer) writeToS3WithRetry(ctx context.Context, key string, data []byte) error {
	if w.config.Bucket == "" {
		return fmt.Errorf("S3 bucket not specified")
	}

	uploader, err := w.getUploader()
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < w.config.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			logging.Warn("Retrying S3 upload", map[string]interface{}{
				"attempt": attempt + 1,
				"max":     w.config.Retry.MaxRetries,
				"error":   lastErr.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.Retry.RetryDelay):
			}
		}

		if err := w.writeToS3(ctx, uploader, key, data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to upload to S3 after %d attempts: %w",
		w.config.Retry.MaxRetries, lastErr)
}

func (w *Writer) getUploader() (s3manageriface.UploaderAPI, error) {
	if w.uploader != nil {
		return w.uploader, nil
	}

	sess, err := internalaws.NewSession(w.config.Profile, w.config.BucketRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	w.uploader = s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
		u.PartSize = w.config.Upload.PartSize
		u.Concurrency = w.config.Upload.ConcurrentParts
	})
	return w.uploader, nil
}

// writeToS3 writes data to an S3 bucket with progress tracking
func (w *Writer) writeToS3(ctx context.Context, uploader s3manageriface.UploaderAPI, key string, data []byte) error {
	out := w.progress
	if out == nil {
		out = io.Discard
	}

	reader := &progressReader{
		reader: bytes.NewReader(data),
		bar: progressbar.NewOptions64(
			int64(len(data)),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Uploading to S3..."),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(15),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(out)
			}),
		),
	}

	_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:               aws.String(w.config.Bucket),
		Key:                  aws.String(key),
		Body:                 reader,
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: aws.String(s3.ServerSideEncryptionAes256),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// progressReader wraps an io.Reader to track progress
type progressReader struct {
	reader io.Reader
	bar    *progressbar.ProgressBar
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if barErr := r.bar.Add(n); barErr != nil {
		logging.Debug("Failed to update progress bar", map[string]interface{}{
			"error": barErr.Error(),
		})
	}
	return n, err
}
