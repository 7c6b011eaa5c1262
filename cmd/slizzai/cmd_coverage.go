package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	slizzai "github.com/Slizzurp/SlizzAi-3"
)

func showCoverage(cmd *cobra.Command, args []string) error {
	path := reportPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		path = "coverage.json"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var report slizzai.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s  %dx%d  %s\n",
		report.RunID, report.FrameWidth, report.FrameHeight, report.Duration().Round(time.Millisecond))
	fmt.Fprintf(out, "tiles: %d complete, %d failed, %d skipped of %d\n",
		report.Completed, report.Failed, report.Skipped, report.Total)
	fmt.Fprintf(out, "budget: %.2f consumed of %.2f (%.2f remaining)\n",
		report.Usage.Consumed, report.Usage.Limit, report.Usage.Remaining)

	if report.Complete() {
		fmt.Fprintln(out, "frame is fully covered")
		return nil
	}
	fmt.Fprintln(out, "missing regions:")
	for _, ts := range report.Incomplete {
		fmt.Fprintf(out, "  tile %3d  %4dx%-4d at (%d,%d)  %s", ts.ID,
			ts.Region.W, ts.Region.H, ts.Region.X, ts.Region.Y, ts.State)
		if ts.Error != "" {
			fmt.Fprintf(out, "  (%s)", ts.Error)
		}
		fmt.Fprintln(out)
	}
	return nil
}
