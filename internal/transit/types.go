package transit

import "fmt"

type Stop struct {
	StopID string `json:"stop_id"`
	Name   string `json:"stop_name"`
}

// Route is one bus line with its ordered stops. ApproxTravelTimes[i] is the
// travel time in minutes arriving at stop i from stop i-1; entry 0 is zero.
type Route struct {
	RouteID           string    `json:"route_id"`
	ShortName         string    `json:"route_short_name"`
	LongName          string    `json:"route_long_name"`
	ExampleTripID     string    `json:"example_trip_id"`
	Stops             []Stop    `json:"stops"`
	ApproxTravelTimes []float64 `json:"approxTravelTimes"`
}

// Validate checks that every stop has a travel time entry.
func (r Route) Validate() error {
	if len(r.ApproxTravelTimes) != len(r.Stops) {
		return fmt.Errorf("route %s: %d travel times for %d stops", r.RouteID, len(r.ApproxTravelTimes), len(r.Stops))
	}
	return nil
}

// TripLeg is a scheduled journey segment returned by the journey service.
type TripLeg struct {
	StartTime      string `json:"start_time"` // HH:MM:SS, may exceed 24h
	EndTime        string `json:"end_time"`
	StopsInBetween int    `json:"stops_in_between"`
	RouteNumber    string `json:"route_number"`
	TripHeadsign   string `json:"trip_headsign"`
}

type Itinerary struct {
	NumStops  int     `json:"numStops"`
	TotalTime float64 `json:"totalTime"` // minutes
}

// StopTime is a row of a trip's schedule as stored in the GTFS catalog.
type StopTime struct {
	StopSequence int
	ArrivalSec   int // seconds since midnight (can exceed 24h), -1 if unknown
	DepartureSec int // seconds since midnight (can exceed 24h), -1 if unknown
	StopID       string
	StopName     string
}
