package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	slizzai "github.com/Slizzurp/SlizzAi-3"
	"github.com/Slizzurp/SlizzAi-3/internal/sample"
)

var metricsAddr string

func init() {
	runCmd.Flags().StringVar(&metricsAddr, "metrics-listen", "",
		"serve Prometheus metrics on this address during the run (e.g. :9090)")
}

func runCycle(cmd *cobra.Command, _ []string) error {
	cfg, endpoint, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var disp sample.Dispatcher = sample.Upscaler{}
	if endpoint != "" {
		disp = &sample.HTTPSampler{BaseURL: endpoint, Timeout: cfg.SuperSampleTimeout}
	}
	raster := slizzai.GradientRasterizer{FrameWidth: cfg.Width, FrameHeight: cfg.Height}

	opts := []slizzai.Option{slizzai.WithLogger(logger)}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, slizzai.WithMetrics(slizzai.NewMetrics(reg)))
		srv := &http.Server{
			Addr:    metricsAddr,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics listener", "err", err)
			}
		}()
		defer srv.Close()
	}

	pipe, err := slizzai.NewPipeline(cfg, raster, disp, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frame, report, err := pipe.Run(ctx)
	if err != nil {
		return err
	}

	if err := writeFrame(outputPath, frame); err != nil {
		return err
	}
	if err := writeReport(reportPath, report); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"run %s: %d/%d tiles complete (%d failed, %d skipped), %.2f/%.2f units consumed, %s\n",
		report.RunID, report.Completed, report.Total, report.Failed, report.Skipped,
		report.Usage.Consumed, report.Usage.Limit, report.Duration().Round(time.Millisecond))

	if report.Failed > 0 {
		return fmt.Errorf("%d tiles failed", report.Failed)
	}
	if strict && report.Skipped > 0 {
		return fmt.Errorf("%d tiles skipped under --strict", report.Skipped)
	}
	return nil
}

func writeFrame(path string, frame *slizzai.FrameBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, frame.ToImage()); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func writeReport(path string, report *slizzai.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
