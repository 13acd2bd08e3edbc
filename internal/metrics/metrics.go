package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Keystrokes      prometheus.Counter
	SearchesIssued  prometheus.Counter
	SearchesSettled prometheus.Counter
	SearchFailures  prometheus.Counter
	StaleDiscarded  prometheus.Counter
	SearchResults   prometheus.Histogram
	SearchDuration  prometheus.Histogram

	JourneysPlanned prometheus.Counter
	JourneyFailures prometheus.Counter
	JourneyDuration prometheus.Histogram
	LegDurations    *prometheus.CounterVec // source label: measured|estimated

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	QuietPeriod     prometheus.Gauge // seconds
	SearchCacheSize prometheus.Gauge
}

func NewCollector(quietPeriod time.Duration, cacheSize int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Keystrokes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_search_keystrokes_total",
			Help: "Total query updates received by the search coordinator.",
		}),
		SearchesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_searches_issued_total",
			Help: "Total remote route searches issued after the quiet period.",
		}),
		SearchesSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_searches_settled_total",
			Help: "Total route searches whose result was applied.",
		}),
		SearchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_search_failures_total",
			Help: "Total current route searches that failed.",
		}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_search_stale_discarded_total",
			Help: "Total route search responses dropped because a newer query superseded them.",
		}),
		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityride_search_results",
			Help:    "Number of routes returned by applied searches.",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityride_search_duration_seconds",
			Help:    "Latency of applied route searches.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		JourneysPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_journeys_planned_total",
			Help: "Total journey lookups that returned results.",
		}),
		JourneyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_journey_failures_total",
			Help: "Total journey lookups that failed.",
		}),
		JourneyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityride_journey_duration_seconds",
			Help:    "Latency of journey lookups.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		LegDurations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cityride_leg_durations_total",
			Help: "Trip leg durations resolved, by source.",
		}, []string{"source"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cityride_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cityride_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cityride_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		QuietPeriod: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cityride_search_quiet_period_seconds",
			Help: "Debounce delay after the last keystroke.",
		}),
		SearchCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cityride_search_cache_size",
			Help: "Configured route search cache capacity.",
		}),
	}

	reg.MustRegister(
		c.Keystrokes, c.SearchesIssued, c.SearchesSettled, c.SearchFailures, c.StaleDiscarded,
		c.SearchResults, c.SearchDuration,
		c.JourneysPlanned, c.JourneyFailures, c.JourneyDuration, c.LegDurations,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.QuietPeriod, c.SearchCacheSize,
	)

	c.QuietPeriod.Set(quietPeriod.Seconds())
	c.SearchCacheSize.Set(float64(cacheSize))

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
