package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gangwaa/NerualAdsV2/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write .adplanner.yaml with every setting and its default value to the
current directory, or to the path given with --config.`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = ".adplanner.yaml"
	}
	if err := config.WriteDefault(path, initForce); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("configuration already exists at %s, use --force to overwrite", path)
		}
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
