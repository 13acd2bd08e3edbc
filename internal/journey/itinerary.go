package journey

import (
	"fmt"
	"strings"

	"cityride/internal/transit"
)

// ComputeItinerary returns the number of stops and the total travel time
// between two stop positions of a route. The order of the indices does not
// matter. Equal indices always cost nothing, even when out of range.
// Otherwise indices outside [0, len(route.Stops)) fail with ErrInvalidIndex;
// they are never clamped.
func ComputeItinerary(route transit.Route, startIdx, endIdx int) (transit.Itinerary, error) {
	if startIdx == endIdx {
		return transit.Itinerary{}, nil
	}
	if err := route.Validate(); err != nil {
		return transit.Itinerary{}, fmt.Errorf("compute itinerary: %w: %v", ErrInvalidRoute, err)
	}
	n := len(route.Stops)
	for _, idx := range []int{startIdx, endIdx} {
		if idx < 0 || idx >= n {
			return transit.Itinerary{}, fmt.Errorf("compute itinerary: route %s: %w: %d not in [0, %d)", route.RouteID, ErrInvalidIndex, idx, n)
		}
	}

	s, e := min(startIdx, endIdx), max(startIdx, endIdx)
	// Segment cost belongs to the stop being arrived at: (s, e].
	total := 0.0
	for i := s + 1; i <= e; i++ {
		total += route.ApproxTravelTimes[i]
	}
	return transit.Itinerary{NumStops: e - s, TotalTime: total}, nil
}

// ComputeItineraryByStop resolves two stops by ID, or by case-insensitive
// name, and computes the itinerary between them.
func ComputeItineraryByStop(route transit.Route, from, to string) (transit.Itinerary, error) {
	s, err := StopIndex(route, from)
	if err != nil {
		return transit.Itinerary{}, err
	}
	e, err := StopIndex(route, to)
	if err != nil {
		return transit.Itinerary{}, err
	}
	return ComputeItinerary(route, s, e)
}

// StopIndex returns the position of the first stop matching key.
func StopIndex(route transit.Route, key string) (int, error) {
	key = strings.TrimSpace(key)
	for i, st := range route.Stops {
		if st.StopID == key {
			return i, nil
		}
	}
	for i, st := range route.Stops {
		if strings.EqualFold(st.Name, key) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("route %s: %w: %q", route.RouteID, ErrUnknownStop, key)
}
