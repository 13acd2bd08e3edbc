package journey

import (
	"cityride/internal/transit"
)

// MinutesPerStop is the per-stop estimate used when a leg's times cannot be
// parsed. It is an approximation, not a measured value.
const MinutesPerStop = 3

const serviceDaySec = 24 * 3600

type DurationSource int

const (
	Measured DurationSource = iota
	Estimated
)

func (s DurationSource) String() string {
	if s == Estimated {
		return "estimated"
	}
	return "measured"
}

// Duration is a leg duration in minutes tagged with how it was obtained.
type Duration struct {
	Minutes float64
	Source  DurationSource
}

func (d Duration) Estimated() bool { return d.Source == Estimated }

// ResolveDuration returns the elapsed minutes of a trip leg. It never fails:
// when either time is malformed it falls back to StopsInBetween*MinutesPerStop
// and tags the result Estimated.
func ResolveDuration(leg transit.TripLeg) Duration {
	start, errStart := transit.ParseClock(leg.StartTime)
	end, errEnd := transit.ParseClock(leg.EndTime)
	if errStart != nil || errEnd != nil {
		return Duration{Minutes: float64(max(leg.StopsInBetween, 0) * MinutesPerStop), Source: Estimated}
	}
	// arrives on a later service day
	for end < start {
		end += serviceDaySec
	}
	return Duration{Minutes: float64(end-start) / 60, Source: Measured}
}
