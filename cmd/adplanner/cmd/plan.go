package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gangwaa/NerualAdsV2/internal/adapters/export"
	"github.com/gangwaa/NerualAdsV2/internal/core"
	"github.com/gangwaa/NerualAdsV2/internal/render"
)

var planCmd = &cobra.Command{
	Use:   "plan [brief]",
	Short: "Run every stage for a brief and print the plan",
	Long: `Run the four planning stages for one brief and print each stage's
reasoning followed by the line item table.

The brief is taken from the arguments, from --file, or from stdin when
--file is "-".

Examples:
  adplanner plan "Launch a $250,000 awareness campaign for Acme Corp over 6 weeks"
  adplanner plan --file brief.txt --export
  adplanner plan --provider offline --json "Launch a campaign for Acme"`,
	RunE: runPlan,
}

var (
	planFile   string
	planExport bool
	planJSON   bool
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "read the brief from a file (- for stdin)")
	planCmd.Flags().BoolVar(&planExport, "export", false, "write the plan as CSV to the export directory")
	planCmd.Flags().BoolVar(&planJSON, "json", false, "print the plan snapshot as JSON")
}

func readBrief(cmd *cobra.Command, args []string) (string, error) {
	switch planFile {
	case "":
		return strings.Join(args, " "), nil
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	default:
		data, err := os.ReadFile(planFile)
		if err != nil {
			return "", fmt.Errorf("reading brief: %w", err)
		}
		return string(data), nil
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	brief, err := readBrief(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	ctx := contextOrBackground(cmd)

	rt, err := newRuntime(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.sessions.Create()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	r, err := render.New(out, useColor(out))
	if err != nil {
		return err
	}

	for sess.Status().Stage != core.StageComplete {
		res, err := sess.Process(ctx, brief)
		if err != nil {
			return err
		}
		if !planJSON {
			fmt.Fprint(out, r.Stage(res))
		}
		if _, err := sess.Advance(ctx, ""); err != nil {
			return err
		}
	}

	snap := sess.Orchestrator().Snapshot()
	if planJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out)
		fmt.Fprint(out, r.Plan(snap.Parameters.Advertiser, snap.Structure))
	}

	if planExport {
		plan := &core.PlanRecord{
			ID:          sess.PlanID(),
			SessionID:   sess.ID,
			Advertiser:  snap.Parameters.Advertiser,
			TotalBudget: snap.Structure.TotalBudget,
			LineItems:   len(snap.Structure.LineItems),
			Confidence:  snap.Structure.Confidence,
			Snapshot:    snap,
			CreatedAt:   time.Now().UTC(),
		}
		if plan.ID == "" {
			plan.ID = core.PlanID(uuid.NewString())
		}
		path, err := export.NewExporter(cfg.Export.Dir).WriteFile(plan)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "exported %s\n", path)
	}
	return nil
}
