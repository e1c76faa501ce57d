package list

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"costdelta/internal/aws/pricing"
)

type region struct {
	Code     string `json:"code"`
	Location string `json:"location"`
}

// NewRegionsCmd creates and returns the regions command
func NewRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List regions that can be priced",
		Long: `List the region codes accepted by --region together with the
location name used to filter Price List products.`,
		Example: `  # List all supported regions
  costdelta list regions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			var regions []region
			for _, code := range pricing.Regions() {
				location, _ := pricing.LocationForRegion(code)
				regions = append(regions, region{Code: code, Location: location})
			}

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), regions)
			}

			tw := newTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Region", "Location"})
			for _, r := range regions {
				tw.AppendRow(table.Row{r.Code, r.Location})
			}
			tw.Render()
			return nil
		},
	}

	return cmd
}
