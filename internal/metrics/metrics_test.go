package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector(500*time.Millisecond, 256)

	c.StaleDiscarded.Inc()
	c.LegDurations.WithLabelValues("estimated").Inc()

	assert.InDelta(t, 0.5, testutil.ToFloat64(c.QuietPeriod), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(c.StaleDiscarded), 1e-9)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cityride_search_stale_discarded_total 1")
	assert.Contains(t, string(body), `cityride_leg_durations_total{source="estimated"} 1`)
}
