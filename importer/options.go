package importer

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/objectsync/depsync/validate"
)

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a custom logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithValidator replaces the default dependency validator. Combine several
// validators with validate.Multi; pass nil to disable validation entirely
// for every run of this importer.
func WithValidator(v validate.Validator) Option {
	return func(i *Importer) {
		i.validator = v
		i.validatorSet = true
	}
}

// WithTracerProvider enables OpenTelemetry tracing of the pipeline phases.
// Without it, spans are no-ops.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(i *Importer) {
		i.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider enables OpenTelemetry metrics for per-record outcomes.
// Without it, counters are no-ops.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(i *Importer) {
		i.meter = mp.Meter(instrumentationName)
	}
}

// Progress describes one processed record, delivered to the progress
// callback synchronously after the record is handled.
type Progress struct {
	// Index is the record's position in the creation order, starting at 0.
	Index int

	// Total is the number of records in the order.
	Total int

	// RecordID and Type identify the record.
	RecordID string
	Type     string

	// Outcome is what happened to the record.
	Outcome Outcome
}

// ProgressFunc receives progress updates during execution. Returning a
// non-nil error aborts the run; the partial result accumulated so far is
// returned alongside the abort error.
type ProgressFunc func(p Progress) error

// RunOption configures a single import run.
type RunOption func(*runConfig)

type runConfig struct {
	dryRun   bool
	validate bool
	progress ProgressFunc
}

// WithDryRun makes the run stop after validation and report what would
// happen. The target store's creation path is never invoked.
func WithDryRun() RunOption {
	return func(rc *runConfig) {
		rc.dryRun = true
	}
}

// WithoutValidation skips the validation phase for this run.
func WithoutValidation() RunOption {
	return func(rc *runConfig) {
		rc.validate = false
	}
}

// WithProgress registers a progress callback for this run.
func WithProgress(fn ProgressFunc) RunOption {
	return func(rc *runConfig) {
		rc.progress = fn
	}
}
