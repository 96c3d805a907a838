package lazycache

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a [Cache].
type Option func(*options)

type options struct {
	logger *slog.Logger

	// metricsReg is optional; when set, cache activity is exported as
	// Prometheus metrics labeled with metricsComponent.
	metricsReg       prometheus.Registerer
	metricsComponent string
}

// WithLogger sets the logger used for load diagnostics and load timings.
// If logger is nil, this option is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics registers cache metrics with reg, labeled with component.
// If reg is nil or component is empty, this option is ignored.
func WithMetrics(reg prometheus.Registerer, component string) Option {
	return func(opts *options) {
		if reg != nil && component != "" {
			opts.metricsReg = reg
			opts.metricsComponent = component
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	return o
}
