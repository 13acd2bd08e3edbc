package main

import (
	"time"

	"cityride/internal/journey"
	"cityride/internal/metrics"
	"cityride/internal/publisher"
	"cityride/internal/search"
)

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

func wrapSearchMetrics(c *metrics.Collector) search.Metrics {
	if c == nil {
		return nil
	}
	return &searchMetrics{c: c}
}

type searchMetrics struct{ c *metrics.Collector }

func (s *searchMetrics) Keystroke()      { s.c.Keystrokes.Inc() }
func (s *searchMetrics) SearchIssued()   { s.c.SearchesIssued.Inc() }
func (s *searchMetrics) SearchFailed()   { s.c.SearchFailures.Inc() }
func (s *searchMetrics) StaleDiscarded() { s.c.StaleDiscarded.Inc() }
func (s *searchMetrics) SearchSettled(d time.Duration, routes int) {
	s.c.SearchesSettled.Inc()
	s.c.SearchDuration.Observe(d.Seconds())
	s.c.SearchResults.Observe(float64(routes))
}

func wrapPlanMetrics(c *metrics.Collector) journey.PlanMetrics {
	if c == nil {
		return nil
	}
	return &planMetrics{c: c}
}

type planMetrics struct{ c *metrics.Collector }

func (p *planMetrics) JourneyFailed() { p.c.JourneyFailures.Inc() }
func (p *planMetrics) JourneyPlanned(_ int, d time.Duration) {
	p.c.JourneysPlanned.Inc()
	p.c.JourneyDuration.Observe(d.Seconds())
}
func (p *planMetrics) DurationResolved(estimated bool) {
	src := journey.Measured
	if estimated {
		src = journey.Estimated
	}
	p.c.LegDurations.WithLabelValues(src.String()).Inc()
}
