package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL+"/api/", 2*time.Second)
	require.NoError(t, err)
	c.backoff = time.Millisecond
	return c
}

func TestClient_SearchRoutes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/routes/search", r.URL.Path)
		assert.Equal(t, "Pune Station", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"route_id":"r1","route_short_name":"2","example_trip_id":"t9",
			"stops":[{"stop_id":"a","stop_name":"Katraj"},{"stop_id":"b","stop_name":"Swargate"}],
			"approxTravelTimes":[0,12]}]`))
	})

	routes, err := c.SearchRoutes(context.Background(), "Pune Station")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "r1", routes[0].RouteID)
	assert.Equal(t, "t9", routes[0].ExampleTripID)
	assert.Equal(t, []float64{0, 12}, routes[0].ApproxTravelTimes)
	assert.Equal(t, "Swargate", routes[0].Stops[1].Name)
}

func TestClient_GetJourney(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantLegs int
	}{
		{name: "legs", status: http.StatusOK, body: `[{"start_time":"09:00:00","end_time":"09:25:00","stops_in_between":5,"route_number":"2","trip_headsign":"Shivajinagar"}]`, wantLegs: 1},
		{name: "null", status: http.StatusOK, body: `null`},
		{name: "object", status: http.StatusOK, body: `{"message":"no journey"}`},
		{name: "not found", status: http.StatusNotFound, body: `not found`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Katraj", r.URL.Query().Get("from"))
				assert.Equal(t, "Shivajinagar", r.URL.Query().Get("to"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			legs, err := c.GetJourney(context.Background(), "Katraj", "Shivajinagar")
			require.NoError(t, err)
			assert.NotNil(t, legs)
			assert.Len(t, legs, tc.wantLegs)
		})
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	routes, err := c.SearchRoutes(context.Background(), "Kharadi")
	require.NoError(t, err)
	assert.Empty(t, routes)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.SearchRoutes(context.Background(), "Kharadi")
	require.Error(t, err)
	assert.Equal(t, int32(maxAttempts), hits.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.SearchRoutes(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_BudgetCoversAllAttempts(t *testing.T) {
	c, err := NewClient("http://localhost:8080", 10*time.Second)
	require.NoError(t, err)
	// 4 attempts plus 200ms + 400ms + 800ms of backoff
	assert.Equal(t, 41400*time.Millisecond, c.Budget())
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", time.Second)
	assert.Error(t, err)
}
