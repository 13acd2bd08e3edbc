package journey

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"cityride/internal/catalog"
	"cityride/internal/transit"
)

// JourneyOption is a trip leg paired with its resolved duration.
type JourneyOption struct {
	Leg      transit.TripLeg
	Duration Duration
}

// PlanMetrics receives planner outcomes; nil disables reporting.
type PlanMetrics interface {
	JourneyPlanned(options int, d time.Duration)
	JourneyFailed()
	DurationResolved(estimated bool)
}

// PlanListener is told about every plan that is still current on completion.
type PlanListener interface {
	PublishJourney(from, to string, options []JourneyOption) error
}

// Planner looks up journeys between two named stops. Only the most recent
// Plan call may deliver results; earlier calls that finish later return
// ErrSuperseded.
type Planner struct {
	finder   catalog.JourneyFinder
	metrics  PlanMetrics
	listener PlanListener

	seq atomic.Uint64
}

type PlannerOption func(*Planner)

func WithPlanMetrics(m PlanMetrics) PlannerOption {
	return func(p *Planner) { p.metrics = m }
}

func WithPlanListener(l PlanListener) PlannerOption {
	return func(p *Planner) { p.listener = l }
}

func NewPlanner(finder catalog.JourneyFinder, opts ...PlannerOption) *Planner {
	p := &Planner{finder: finder}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Planner) Plan(ctx context.Context, from, to string) ([]JourneyOption, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, ErrMissingStops
	}
	seq := p.seq.Add(1)

	start := time.Now()
	legs, err := p.finder.GetJourney(ctx, from, to)
	if p.seq.Load() != seq {
		return nil, ErrSuperseded
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.JourneyFailed()
		}
		return nil, fmt.Errorf("plan %q -> %q: %w: %w", from, to, ErrNetwork, err)
	}

	options := make([]JourneyOption, 0, len(legs))
	for _, leg := range legs {
		d := ResolveDuration(leg)
		if p.metrics != nil {
			p.metrics.DurationResolved(d.Estimated())
		}
		options = append(options, JourneyOption{Leg: leg, Duration: d})
	}
	if p.metrics != nil {
		p.metrics.JourneyPlanned(len(options), time.Since(start))
	}
	if p.listener != nil {
		if err := p.listener.PublishJourney(from, to, options); err != nil {
			log.Printf("publish journey from=%q to=%q: %v", from, to, err)
		}
	}
	return options, nil
}
