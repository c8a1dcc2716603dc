package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.ObserveQuote("pdq/tray", "priced", time.Millisecond)
	r.ObserveQuote("pdq/tray", "priced", time.Millisecond)
	r.ObserveQuote("pdq/tray", "locked", time.Millisecond)
	r.ConfigurationError("pdq/broken", "policy.matrix_markups")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.quotes.WithLabelValues("pdq/tray", "priced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.quotes.WithLabelValues("pdq/tray", "locked")))

	expected := `
# HELP displayquote_configuration_errors_total Pricing runs halted by an invalid pricing policy.
# TYPE displayquote_configuration_errors_total counter
displayquote_configuration_errors_total{display="pdq/broken",field="policy.matrix_markups"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "displayquote_configuration_errors_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveQuote("x", "priced", time.Second)
		r.ConfigurationError("x", "y")
	})
}
