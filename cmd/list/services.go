package list

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"costdelta/internal/aws/pricing"
)

// NewServicesCmd creates and returns the services command
func NewServicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services [service-code]",
		Short: "List Price List services and their attributes",
		Long: `List the service codes of the AWS Price List API with the attribute
names their products can be filtered by. With a service code, only that
service is shown.`,
		Example: `  # List every service code
  costdelta list services

  # Show the filterable attributes of EC2
  costdelta list services AmazonEC2`,
		Args: cobra.MaximumNArgs(1),
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

			services, err := client.Services(cmd.Context())
			if err != nil {
				return err
			}
			sort.Slice(services, func(i, j int) bool {
				return services[i].Code < services[j].Code
			})

			if len(args) == 1 {
				services = filterServices(services, args[0])
				if len(services) == 0 {
					return fmt.Errorf("unknown service code: %s", args[0])
				}
			}

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), services)
			}

			tw := newTable(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Service", "Attributes"})
			for _, s := range services {
				attrs := append([]string(nil), s.Attributes...)
				sort.Strings(attrs)
				sep := ", "
				if len(args) == 1 {
					sep = "\n"
				}
				tw.AppendRow(table.Row{s.Code, strings.Join(attrs, sep)})
			}
			tw.Render()
			return nil
		},
	}

	return cmd
}

func filterServices(services []pricing.Service, code string) []pricing.Service {
	for _, s := range services {
		if strings.EqualFold(s.Code, code) {
			return []pricing.Service{s}
		}
	}
	return nil
}
