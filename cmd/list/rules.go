package list

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"costdelta/internal/config"
	"costdelta/internal/resourcemap"
)

// NewRulesCmd creates and returns the rules command
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the pricing rules of a resource map",
		Long: `Load and validate a resource map, then list its pricing rules and the
resource types it treats as free.`,
		Example: `  # List the rules of the default map
  costdelta list rules

  # List the rules of another map as JSON
  costdelta list rules --map maps/prod.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(cmd, "estimate.resource_map"); err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			rm, err := resourcemap.Load(viper.GetString("estimate.resource_map"))
			if err != nil {
				return err
			}

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), rm)
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			tw.AppendHeader(table.Row{"Type", "Service", "Unit", "Multiplier", "Filters"})
			for _, t := range rm.Types() {
				rule, _ := rm.Rule(t)
				multiplier := "-"
				if m := rule.Multiplier(); m != nil {
					multiplier = m.String()
				}
				tw.AppendRow(table.Row{t, rule.Service, rule.Unit, multiplier, describeFilters(rule.Filters)})
			}
			tw.Render()

			if len(rm.Free) > 0 {
				fmt.Fprintln(out, "Free types:")
				for _, t := range rm.Free {
					fmt.Fprintf(out, "  - %s\n", t)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("map", "resource-map.yaml", "Resource map file (YAML or JSON)")

	return cmd
}

// describeFilters renders filters as field=value, with property references in braces
func describeFilters(filters []resourcemap.FilterSpec) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		var value string
		switch {
		case f.Value.FromProperty != "" && f.Value.Default != nil:
			value = fmt.Sprintf("{%s|%s}", f.Value.FromProperty, *f.Value.Default)
		case f.Value.FromProperty != "":
			value = "{" + f.Value.FromProperty + "}"
		case f.Value.Default != nil:
			value = *f.Value.Default
		}
		parts = append(parts, f.Field+"="+value)
	}
	return strings.Join(parts, "\n")
}
