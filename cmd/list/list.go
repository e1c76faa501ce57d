package list

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	awsinternal "costdelta/internal/aws"
	"costdelta/internal/aws/pricing"
	"costdelta/internal/config"
)

// catalog is the part of the Price List API used for discovery
type catalog interface {
	Services(ctx context.Context) ([]pricing.Service, error)
	AttributeValues(ctx context.Context, service, attribute string) ([]string, error)
}

// newCatalog is replaced in tests
var newCatalog = func(endpointRegion string) (catalog, func(), error) {
	sess, err := awsinternal.NewSession(config.Config.Profile, endpointRegion)
	if err != nil {
		return nil, nil, err
	}
	rlConfig := config.PricingRateLimitConfig()
	client := pricing.NewClientFromSession(sess, endpointRegion,
		pricing.WithRateLimiter(awsinternal.NewRateLimiter(&rlConfig)))
	return client, client.Close, nil
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List regions, pricing rules and Price List metadata",
		Long: `List what costdelta knows about.
Currently supports listing:
  - Regions that can be priced and their Price List location names
  - Pricing rules of a resource map
  - Price List services and their filterable attributes
  - Values of a Price List attribute, for writing resource map filters`,
	}

	cmd.PersistentFlags().StringP("format", "f", "text", "Output format (text or json)")
	cmd.PersistentFlags().String("pricing-region", pricing.DefaultEndpointRegion, "Region of the Price List API endpoint")

	cmd.AddCommand(NewRegionsCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewServicesCmd())
	cmd.AddCommand(NewAttributesCmd())

	return cmd
}

// outputFormat returns the validated --format value
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	switch format = strings.ToLower(format); format {
	case "text", "json":
		return format, nil
	default:
		return "", fmt.Errorf("invalid output format: %s (must be text or json)", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	return tw
}

// openCatalog connects to the Price List endpoint selected by flag or config
func openCatalog(cmd *cobra.Command) (catalog, func(), error) {
	if err := config.BindFlags(cmd, "pricing.endpoint_region"); err != nil {
		return nil, nil, err
	}
	endpoint := viper.GetString("pricing.endpoint_region")
	if endpoint == "" {
		endpoint = pricing.DefaultEndpointRegion
	}

	client, cleanup, err := newCatalog(endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pricing client: %w", err)
	}
	return client, cleanup, nil
}
