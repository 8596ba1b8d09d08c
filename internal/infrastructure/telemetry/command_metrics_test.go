package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestCommandMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewCommandMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.Record(ctx, "CreateUser", "", 5*time.Millisecond)
	m.Record(ctx, "CreateUser", "VALIDATION_ERROR", 2*time.Millisecond)

	metrics := collect(t, reader)

	total, ok := metrics["invoicing_commands_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var sum int64
	for _, dp := range total.DataPoints {
		sum += dp.Value
	}
	assert.Equal(t, int64(2), sum)

	failed, ok := metrics["invoicing_command_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failed.DataPoints, 1)
	code, _ := failed.DataPoints[0].Attributes.Value(AttrErrorCode)
	assert.Equal(t, "VALIDATION_ERROR", code.AsString())

	hist, ok := metrics["invoicing_command_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(2), count)
}

func TestNewCommandMetrics_NilMeter(t *testing.T) {
	_, err := NewCommandMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestCommandMetrics_NilReceiver(t *testing.T) {
	var m *CommandMetrics
	assert.NotPanics(t, func() { m.Record(context.Background(), "X", "", time.Second) })
}
