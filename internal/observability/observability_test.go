package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/config"
)

func TestNewLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LoggerConfig{Level: "warn", Format: "json"})

	logger.Info("dropped")
	logger.Warn("kept", "records", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "sales-dashboard", line["service"])
	assert.EqualValues(t, 3, line["records"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warning").String())
	assert.Equal(t, "INFO", parseLogLevel("nonsense").String())
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")

	assert.Equal(t, "abc", GetRequestID(ctx))
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := StartSpan(context.Background(), "noop")
	FinishSpan(span, errors.New("ignored"))
}

func TestInitTracing_WritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracingTo(&buf, config.TracingConfig{Enabled: true, ServiceName: "test"})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "load dataset")
	FinishSpan(span, nil)
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), "load dataset")
}

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.DatasetRecords.Set(42)
	m.Recomputations.WithLabelValues("summary").Inc()

	assert.InDelta(t, 42, testutil.ToFloat64(m.DatasetRecords), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Recomputations.WithLabelValues("summary")), 0)

	// A second set of collectors needs its own registry.
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}
