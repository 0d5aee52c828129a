package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/catalog"
	"github.com/gangwaa/NerualAdsV2/internal/render"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments [query]",
	Short: "List audience segments, optionally fuzzy-filtered",
	RunE:  runSegments,
}

func init() {
	rootCmd.AddCommand(segmentsCmd)
}

func runSegments(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	segments, err := catalog.NewSegmentCatalog(cfg.Catalog.Segments, newLogger(cfg)).
		Search(strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(segments) == 0 {
		fmt.Fprintln(out, "No matching segments.")
		return nil
	}
	r, err := render.New(out, useColor(out))
	if err != nil {
		return err
	}
	fmt.Fprint(out, r.Segments(segments))
	return nil
}
