package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// CommandMetrics records one sample per dispatched command
type CommandMetrics struct {
	dispatched *Counter
	failed     *Counter
	duration   *Histogram
}

// NewCommandMetrics registers the command instruments on meter
func NewCommandMetrics(meter metric.Meter) (*CommandMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	dispatched, err := NewCounter(meter, "invoicing_commands_total", "Commands dispatched", "{commands}")
	if err != nil {
		return nil, err
	}
	failed, err := NewCounter(meter, "invoicing_command_errors_total", "Commands that returned an error, by error code", "{commands}")
	if err != nil {
		return nil, err
	}
	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "invoicing_command_duration_seconds",
		Description: "Command dispatch latency",
		Unit:        "s",
		Boundaries:  CommandDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &CommandMetrics{dispatched: dispatched, failed: failed, duration: duration}, nil
}

// Record counts the dispatch and, when code is non-empty, the failure
func (m *CommandMetrics) Record(ctx context.Context, command, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if code != "" {
		outcome = "error"
		m.failed.Inc(ctx, AttrCommand.String(command), AttrErrorCode.String(code))
	}
	m.dispatched.Inc(ctx, AttrCommand.String(command), AttrOutcome.String(outcome))
	m.duration.RecordDuration(ctx, elapsed, AttrCommand.String(command), AttrOutcome.String(outcome))
}
