package slizzai

import "log/slog"

// Option configures a Pipeline during creation.
//
// Example:
//
//	// Default: package logger, no metrics
//	p, err := slizzai.NewPipeline(cfg, raster, dispatcher)
//
//	// Custom logger and Prometheus metrics
//	p, err := slizzai.NewPipeline(cfg, raster, dispatcher,
//	    slizzai.WithLogger(logger),
//	    slizzai.WithMetrics(m))
type Option func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	logger  *slog.Logger
	metrics *Metrics
}

// WithLogger gives the pipeline its own logger instead of the package
// logger set via SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *pipelineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors to the pipeline. Without
// this option no metrics are recorded.
func WithMetrics(m *Metrics) Option {
	return func(o *pipelineOptions) {
		o.metrics = m
	}
}
