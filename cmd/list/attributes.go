package list

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewAttributesCmd creates and returns the attributes command
func NewAttributesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attributes <service-code> <attribute>",
		Short: "List the values of a Price List attribute",
		Long: `List every value a Price List attribute takes for a service. These are
the values resource map filters must match exactly.`,
		Example: `  # Which volume types can AWS::EC2::Volume filters use?
  costdelta list attributes AmazonEC2 volumeApiName`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			client, cleanup, err := openCatalog(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			values, err := client.AttributeValues(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			sort.Strings(values)

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), values)
			}

			out := cmd.OutOrStdout()
			if len(values) == 0 {
				fmt.Fprintf(out, "No values found for %s in %s\n", args[1], args[0])
				return nil
			}
			fmt.Fprintf(out, "Values of %s in %s:\n", args[1], args[0])
			for _, v := range values {
				fmt.Fprintf(out, "  - %s\n", v)
			}
			return nil
		},
	}

	return cmd
}
