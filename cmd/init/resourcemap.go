package init

import (
	"github.com/spf13/cobra"

	"costdelta/internal/resourcemap"
)

// NewResourceMapCmd creates the resource-map subcommand
func NewResourceMapCmd() *cobra.Command {
	var force bool
	var output string

	cmd := &cobra.Command{
		Use:   "resource-map",
		Short: "Create a starter resource map",
		Long: `Create a resource map that prices EC2 instances, EBS volumes, NAT gateways
and RDS instances, and treats common IAM, SSM and logging types as free.

Use "costdelta list services" and "costdelta list attributes" to find the
service codes and filter values for further resource types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeNewFile(cmd, output, resourcemap.ExampleContent, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing file")
	cmd.Flags().StringVarP(&output, "output", "o", "resource-map.yaml", "Output file path")

	return cmd
}
