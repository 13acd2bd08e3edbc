package catalog

import (
	"context"

	"cityride/internal/transit"
)

// RouteSearcher finds routes matching free text. Implementations give no
// latency or ordering guarantees and may fail.
type RouteSearcher interface {
	SearchRoutes(ctx context.Context, query string) ([]transit.Route, error)
}

// JourneyFinder returns the trip legs connecting two named stops. An empty
// result means no journey exists.
type JourneyFinder interface {
	GetJourney(ctx context.Context, from, to string) ([]transit.TripLeg, error)
}

// Service is a backend serving both lookups.
type Service interface {
	RouteSearcher
	JourneyFinder
}
