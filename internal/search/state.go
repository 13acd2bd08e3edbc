package search

import (
	"errors"

	"cityride/internal/transit"
)

// ErrNetwork wraps failures of the remote route search.
var ErrNetwork = errors.New("route search failed")

type Phase int

const (
	Idle Phase = iota
	Pending
	InFlight
	Settled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Settled:
		return "settled"
	}
	return "unknown"
}

// State is a snapshot of a search session. Routes keeps the last applied
// result while a newer query is pending or in flight.
type State struct {
	Phase   Phase
	Query   string
	Seq     uint64
	Routes  []transit.Route
	Err     error
	Loading bool
}

// Message is the user-visible status line for the state, if any.
func (s State) Message() string {
	switch {
	case s.Err != nil:
		return "Failed to fetch routes. Please try again."
	case s.Phase == Settled && s.Query != "" && len(s.Routes) == 0:
		return "No routes found"
	}
	return ""
}
