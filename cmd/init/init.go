package init

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize costdelta configuration files",
		Long: `Initialize costdelta configuration files.

This command helps you create a default config.yaml and a starter resource map
that tells the estimator how to price common resource types.`,
	}

	cmd.AddCommand(NewConfigCmd())
	cmd.AddCommand(NewResourceMapCmd())

	return cmd
}

// writeNewFile writes content to path unless the file exists and force is unset
func writeNewFile(cmd *cobra.Command, path, content string, force bool) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); err == nil && !force {
		return fmt.Errorf("file %s already exists. Use --force to overwrite", absPath)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", absPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", absPath)
	return nil
}
