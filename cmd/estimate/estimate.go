package estimate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	awsinternal "costdelta/internal/aws"
	"costdelta/internal/aws/pricing"
	"costdelta/internal/config"
	"costdelta/internal/estimator"
	"costdelta/internal/logging"
	"costdelta/internal/notify"
	"costdelta/internal/output"
	"costdelta/internal/report"
	"costdelta/internal/render"
	"costdelta/internal/resourcemap"
)

// Formats lists the supported result formats
var Formats = []string{"json", "table", "markdown"}

type estimateOptions struct {
	reportPath    string
	mapPath       string
	region        string
	format        string
	timeout       time.Duration
	concurrency   int
	selector      string
	pricingRegion string
	webhookURL    string
	title         string
	output        output.Config
}

// lookupFactory builds the price lookup used by a run
type lookupFactory func(opts *estimateOptions, selector pricing.Selector) (estimator.PriceLookup, func(), error)

// uploaderFactory builds the S3 uploader used to sync results
type uploaderFactory func(profile, region string) (s3manageriface.UploaderAPI, error)

var (
	newPriceLookup lookupFactory   = pricingLookup
	newUploader    uploaderFactory = s3Uploader
	newWebhook                     = notify.New
)

// NewEstimateCmd creates the estimate command
func NewEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the monthly cost impact of a change report",
		Long: `Estimate the monthly cost impact of the resource changes in a change report.

Each changed resource is priced through the AWS Price List API using the rules
of a resource map. Resources that cannot be priced are listed without a delta
and never fail the run; only malformed input does.

Examples:
  # Price a change report against the rules in resource-map.yaml
  costdelta estimate --report changes.json --region us-east-1

  # Read the report from stdin and print a table
  cdk-diff-tool | costdelta estimate --report - --region eu-west-1 --format table

  # Post a markdown summary to a chat webhook and keep the result in S3
  costdelta estimate --report changes.json --region us-east-1 \
    --notify-webhook https://hooks.example.com/T000 \
    --output s3 --bucket my-bucket --bucket-region us-west-2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd,
				"estimate.region",
				"estimate.resource_map",
				"estimate.timeout",
				"estimate.format",
				"pricing.selector",
				"pricing.endpoint_region",
				"notify.webhook_url",
				"notify.title",
				"output.type",
				"output.dir",
				"output.bucket",
				"output.bucket_region",
				"output.prefix",
			); err != nil {
				return err
			}

			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			return runEstimate(cmd, opts)
		},
	}

	cmd.Flags().String("report", "-", "Change report file, or - for stdin")
	cmd.Flags().String("map", "resource-map.yaml", "Resource map file (YAML or JSON)")
	cmd.Flags().String("region", "", "Region to price resources in, e.g. us-east-1")
	cmd.Flags().StringP("format", "f", "json", "Output format (json, table, markdown)")
	cmd.Flags().Duration("timeout", 2*time.Minute, "Give up on remaining price lookups after this long")
	cmd.Flags().Int("concurrency", 0, "Concurrent price lookups (default: --max-workers)")
	cmd.Flags().String("selector", pricing.FirstNonZeroUSD.Name(), "Quote selection ("+strings.Join(pricing.SelectorNames(), ", ")+")")
	cmd.Flags().String("pricing-region", pricing.DefaultEndpointRegion, "Region of the Price List API endpoint")
	cmd.Flags().String("notify-webhook", "", "Post a markdown summary to this webhook URL")
	cmd.Flags().String("title", "Cost estimate", "Title of the markdown summary")
	cmd.Flags().String("output", "none", "Store the result (none, filesystem, s3)")
	cmd.Flags().String("output-dir", "output", "Base directory when --output=filesystem")
	cmd.Flags().String("bucket", "", "S3 bucket name (required when --output=s3)")
	cmd.Flags().String("bucket-region", "", "S3 bucket region (required when --output=s3)")
	cmd.Flags().String("prefix", "costdelta", "S3 key prefix when --output=s3")

	return cmd
}

// loadOptions resolves flags, environment and config file into options
func loadOptions(cmd *cobra.Command) (*estimateOptions, error) {
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return nil, err
	}
	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = config.Config.MaxWorkers
	}

	outputType, err := output.ParseType(viper.GetString("output.type"))
	if err != nil {
		return nil, err
	}

	opts := &estimateOptions{
		reportPath:    reportPath,
		mapPath:       viper.GetString("estimate.resource_map"),
		region:        strings.TrimSpace(viper.GetString("estimate.region")),
		format:        strings.ToLower(viper.GetString("estimate.format")),
		timeout:       viper.GetDuration("estimate.timeout"),
		concurrency:   concurrency,
		selector:      viper.GetString("pricing.selector"),
		pricingRegion: viper.GetString("pricing.endpoint_region"),
		webhookURL:    viper.GetString("notify.webhook_url"),
		title:         viper.GetString("notify.title"),
		output: output.Config{
			Type:         outputType,
			OutputDir:    viper.GetString("output.dir"),
			Bucket:       viper.GetString("output.bucket"),
			BucketRegion: viper.GetString("output.bucket_region"),
			Prefix:       viper.GetString("output.prefix"),
			Profile:      config.Config.Profile,
		},
	}

	if !validFormat(opts.format) {
		return nil, fmt.Errorf("invalid output format: %s (must be %s)", opts.format, strings.Join(Formats, ", "))
	}
	if opts.output.Type == output.S3 {
		if opts.output.Bucket == "" {
			return nil, fmt.Errorf("--bucket is required when --output=s3")
		}
		if opts.output.BucketRegion == "" {
			return nil, fmt.Errorf("--bucket-region is required when --output=s3")
		}
	}
	return opts, nil
}

func validFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

func runEstimate(cmd *cobra.Command, opts *estimateOptions) error {
	if opts.region == "" {
		return estimator.NewInputError(estimator.KindRegion, "--region is required", nil)
	}
	if _, ok := pricing.LocationForRegion(opts.region); !ok {
		return estimator.NewInputError(estimator.KindRegion, "unknown region", nil).
			WithContext("region", opts.region)
	}

	cr, err := readReport(cmd.InOrStdin(), opts.reportPath)
	if err != nil {
		return err
	}

	rm, err := resourcemap.Load(opts.mapPath)
	if err != nil {
		return estimator.NewInputError(estimator.KindResourceMap, "failed to load resource map", err).
			WithContext("path", opts.mapPath)
	}

	selector, err := pricing.SelectorByName(opts.selector)
	if err != nil {
		return err
	}

	lookup, cleanup, err := newPriceLookup(opts, selector)
	if err != nil {
		return fmt.Errorf("failed to set up price lookup: %w", err)
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runCtx := ctx
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	est := estimator.New(lookup, estimator.WithConcurrency(opts.concurrency))
	result, err := est.Estimate(runCtx, cr, rm, opts.region)
	if err != nil {
		return err
	}

	if err := writeResult(cmd.OutOrStdout(), opts, result); err != nil {
		return err
	}

	// Delivery problems are reported but never fail a finished estimate
	if opts.webhookURL != "" {
		if err := newWebhook(opts.webhookURL).Send(ctx, render.Markdown(result, opts.title)); err != nil {
			logging.Error("Failed to post estimate summary", err, map[string]interface{}{
				"run_id": result.RunID,
			})
		} else {
			logging.Info("Posted estimate summary", map[string]interface{}{
				"run_id": result.RunID,
			})
		}
	}

	if opts.output.Type != output.None {
		storeResult(ctx, opts, result)
	}
	return nil
}

func readReport(stdin io.Reader, path string) (*report.ChangeReport, error) {
	var in io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, estimator.NewInputError(estimator.KindReport, "failed to open change report", err).
				WithContext("path", path)
		}
		defer f.Close()
		in = f
	}

	cr, err := report.Decode(in)
	if err != nil {
		return nil, estimator.NewInputError(estimator.KindReport, "failed to decode change report", err).
			WithContext("path", path)
	}
	return cr, nil
}

func writeResult(w io.Writer, opts *estimateOptions, result *estimator.Result) error {
	switch opts.format {
	case "table":
		return render.Table(w, result)
	case "markdown":
		_, err := io.WriteString(w, render.Markdown(result, opts.title))
		return err
	default:
		return render.JSON(w, result)
	}
}

func storeResult(ctx context.Context, opts *estimateOptions, result *estimator.Result) {
	var writerOpts []output.Option
	if opts.output.Type == output.S3 {
		uploader, err := newUploader(opts.output.Profile, opts.output.BucketRegion)
		if err != nil {
			logging.Error("Failed to set up S3 upload", err, nil)
			return
		}
		writerOpts = append(writerOpts, output.WithUploader(uploader), output.WithProgressOutput(os.Stderr))
	}

	location, err := output.NewWriter(opts.output, writerOpts...).Write(ctx, result)
	if err != nil {
		logging.Error("Failed to store estimate result", err, map[string]interface{}{
			"run_id": result.RunID,
			"output": string(opts.output.Type),
		})
		return
	}
	logging.Info("Stored estimate result", map[string]interface{}{
		"run_id":   result.RunID,
		"location": location,
	})
}

// pricingLookup talks to the Price List API with the configured profile
func pricingLookup(opts *estimateOptions, selector pricing.Selector) (estimator.PriceLookup, func(), error) {
	sess, err := awsinternal.NewSession(config.Config.Profile, opts.pricingRegion)
	if err != nil {
		return nil, nil, err
	}

	rlConfig := config.PricingRateLimitConfig()
	client := pricing.NewClientFromSession(sess, opts.pricingRegion,
		pricing.WithSelector(selector),
		pricing.WithRateLimiter(awsinternal.NewRateLimiter(&rlConfig)),
	)
	return client, client.Close, nil
}

func s3Uploader(profile, region string) (s3manageriface.UploaderAPI, error) {
	sess, err := awsinternal.NewSession(profile, "")
	if err != nil {
		return nil, err
	}
	regional, err := awsinternal.GetSessionInRegion(sess, region)
	if err != nil {
		return nil, err
	}
	return s3manager.NewUploader(regional), nil
}
