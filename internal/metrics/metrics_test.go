package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AlgoSentinel/internal/model"
)

func TestObserveTicker(t *testing.T) {
	m := NewMetrics()
	m.ObserveTicker(&model.SummaryMetrics{Status: model.StatusOK, TradeCount: 3, FoldsSkipped: 1}, 10*time.Millisecond)
	m.ObserveTicker(&model.SummaryMetrics{Status: model.StatusUnavailable}, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TickersTotal.WithLabelValues("UNAVAILABLE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TradesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FoldsSkipped))
}

func TestObserveRun(t *testing.T) {
	m := NewMetrics()
	m.ObserveRun(false, time.Second)
	m.ObserveRun(true, time.Second)
	m.ObserveRun(false, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	assert.Greater(t, testutil.ToFloat64(m.LastRunTime), 0.0)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.TradesTotal.Add(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "algosentinel_trades_total 2"), string(body))
}
