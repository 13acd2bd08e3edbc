package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityride/internal/transit"
)

func sampleRoute() transit.Route {
	names := []string{"Katraj", "Bharati Vidyapeeth", "Padmavati", "Swargate", "Mandai", "Shaniwar Wada", "Shivajinagar"}
	stops := make([]transit.Stop, len(names))
	for i, n := range names {
		stops[i] = transit.Stop{StopID: string(rune('a' + i)), Name: n}
	}
	return transit.Route{
		RouteID:           "2",
		Stops:             stops,
		ApproxTravelTimes: []float64{0, 4, 6, 3, 5, 2, 7},
	}
}

func TestComputeItinerary(t *testing.T) {
	r := sampleRoute()

	tests := []struct {
		name       string
		start, end int
		want       transit.Itinerary
	}{
		{name: "forward", start: 2, end: 5, want: transit.Itinerary{NumStops: 3, TotalTime: 10}},
		{name: "reverse", start: 5, end: 2, want: transit.Itinerary{NumStops: 3, TotalTime: 10}},
		{name: "adjacent", start: 0, end: 1, want: transit.Itinerary{NumStops: 1, TotalTime: 4}},
		{name: "whole route", start: 0, end: 6, want: transit.Itinerary{NumStops: 6, TotalTime: 27}},
		{name: "same stop", start: 3, end: 3, want: transit.Itinerary{}},
		{name: "same out of range index", start: 42, end: 42, want: transit.Itinerary{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeItinerary(r, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeItinerary_Symmetric(t *testing.T) {
	r := sampleRoute()
	for i := range r.Stops {
		for j := range r.Stops {
			a, err := ComputeItinerary(r, i, j)
			require.NoError(t, err)
			b, err := ComputeItinerary(r, j, i)
			require.NoError(t, err)
			assert.Equal(t, a, b, "i=%d j=%d", i, j)
		}
	}
}

func TestComputeItinerary_InvalidIndex(t *testing.T) {
	r := sampleRoute()

	for _, idx := range [][2]int{{-1, 2}, {2, 7}, {7, 0}, {-3, -1}} {
		_, err := ComputeItinerary(r, idx[0], idx[1])
		assert.ErrorIs(t, err, ErrInvalidIndex, "indices %v", idx)
	}
}

func TestComputeItinerary_InvalidRoute(t *testing.T) {
	r := sampleRoute()
	r.ApproxTravelTimes = r.ApproxTravelTimes[:3]

	_, err := ComputeItinerary(r, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidRoute)
}

func TestComputeItineraryByStop(t *testing.T) {
	r := sampleRoute()

	got, err := ComputeItineraryByStop(r, "shivajinagar", "c")
	require.NoError(t, err)
	assert.Equal(t, transit.Itinerary{NumStops: 4, TotalTime: 17}, got)

	_, err = ComputeItineraryByStop(r, "Katraj", "Hinjawadi")
	assert.ErrorIs(t, err, ErrUnknownStop)
}
