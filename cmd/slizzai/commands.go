package main

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	outputPath string
	reportPath string
	strict     bool
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "slizzai",
		Short: "Eco-budgeted tile rendering pipeline",
		Long: `slizzai partitions a frame into golden-ratio weighted tiles and runs
them through compression and super-sampling under a per-cycle resource
budget. Tiles the budget cannot cover are skipped and reported, never
silently dropped.`,
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run one render cycle from a YAML config",
		RunE:  runCycle,
	}

	coverageCmd = &cobra.Command{
		Use:   "coverage [report.json]",
		Short: "Summarize a coverage report from an earlier cycle",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showCoverage,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "slizzai.yaml",
		"cycle configuration file")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "frame.png",
		"assembled frame output path")
	runCmd.Flags().StringVar(&reportPath, "report", "coverage.json",
		"coverage report output path")
	runCmd.Flags().BoolVar(&strict, "strict", false,
		"treat skipped tiles as a failure exit")

	rootCmd.AddCommand(runCmd, coverageCmd)
}
