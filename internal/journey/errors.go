package journey

import "errors"

var (
	// ErrInvalidIndex is returned for stop positions outside the route.
	ErrInvalidIndex = errors.New("stop index out of range")
	ErrInvalidRoute = errors.New("invalid route")
	ErrUnknownStop  = errors.New("unknown stop")

	ErrMissingStops = errors.New("from and to stops are required")
	// ErrNetwork wraps any failure of the remote journey service.
	ErrNetwork    = errors.New("journey service request failed")
	ErrSuperseded = errors.New("journey request superseded")
)

// UserMessage maps a Planner error to the text shown on the journey screen.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingStops):
		return "Enter both From and To stops"
	case errors.Is(err, ErrNetwork):
		return "Failed to fetch journeys. Please try again."
	default:
		return "Something went wrong."
	}
}
