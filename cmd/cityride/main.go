package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cityride/internal/catalog"
	"cityride/internal/config"
	"cityride/internal/db"
	"cityride/internal/journey"
	"cityride/internal/metrics"
	"cityride/internal/publisher"
	"cityride/internal/remote"
	"cityride/internal/search"
	"cityride/internal/transit"
)

const usage = `usage: cityride <command> [flags]

commands:
  search                          read queries from stdin, one line per keystroke
  journey -from STOP -to STOP     list trips between two stops
  itinerary -route ID -from STOP -to STOP
                                  stops and travel time between two stops of a route`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SearchQuietPeriod, cfg.SearchCacheSize)
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatalf("backend error: %v", err)
	}
	defer closeBackend()

	// Optional NATS event publisher
	var pub *publisher.NATSPublisher
	if cfg.NATSURL != "" {
		pub, err = publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
	}

	searcher := catalog.NewCachedSearcher(backend, cfg.SearchCacheSize, cfg.SearchCacheTTL)
	budget := requestBudget(backend, cfg.RequestTimeout)

	var code int
	switch os.Args[1] {
	case "search":
		code = runSearch(ctx, cfg, budget, searcher, pub, mcol, os.Stdin, os.Stdout)
	case "journey":
		code = runJourney(ctx, budget, backend, pub, mcol, os.Args[2:], os.Stdout)
	case "itinerary":
		code = runItinerary(ctx, budget, searcher, os.Args[2:], os.Stdout)
	default:
		fmt.Fprintln(os.Stderr, usage)
		code = 2
	}
	if code != 0 {
		// deferred cleanup does not run after os.Exit
		closeBackend()
		if pub != nil {
			pub.Close()
		}
		os.Exit(code)
	}
}

// requestBudget is how long one backend call may take. The route service
// client retries internally, so its budget spans every attempt.
func requestBudget(backend catalog.Service, timeout time.Duration) time.Duration {
	if b, ok := backend.(interface{ Budget() time.Duration }); ok {
		return b.Budget()
	}
	return timeout
}

// openBackend connects to the Postgres catalog when configured, otherwise
// to the remote route service.
func openBackend(ctx context.Context, cfg *config.Config) (catalog.Service, func(), error) {
	if cfg.DatabaseURL == "" {
		client, err := remote.NewClient(cfg.RouteAPIURL, cfg.RequestTimeout)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using route service %s", cfg.RouteAPIURL)
		return client, func() {}, nil
	}

	dsn, name, err := db.ResolveCityDSN(ctx, cfg.DatabaseURL, cfg.City)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve city database: %w", err)
	}
	if name != "" {
		log.Printf("using database %q for city %q", name, cfg.City)
	}
	sqlDB, err := db.Open(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.Ping(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("db ping: %w", err)
	}
	return db.NewCatalog(sqlDB), func() { _ = sqlDB.Close() }, nil
}

func runSearch(ctx context.Context, cfg *config.Config, budget time.Duration, searcher catalog.RouteSearcher, pub *publisher.NATSPublisher, mcol *metrics.Collector, in io.Reader, out io.Writer) int {
	settled := make(chan struct{}, 1)
	opts := []search.Option{
		search.WithQuietPeriod(cfg.SearchQuietPeriod),
		search.WithRequestTimeout(budget),
		search.WithObserver(func(s search.State) {
			printState(out, s)
			if s.Phase == search.Settled {
				select {
				case settled <- struct{}{}:
				default:
				}
			}
		}),
	}
	if m := wrapSearchMetrics(mcol); m != nil {
		opts = append(opts, search.WithMetrics(m))
	}
	if pub != nil {
		opts = append(opts, search.WithListener(pub))
	}
	coord := search.NewCoordinator(ctx, searcher, opts...)
	defer coord.Close()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		coord.Type(sc.Text())
	}
	if err := sc.Err(); err != nil {
		log.Printf("read queries: %v", err)
		return 1
	}

	// Let the last keystroke settle before the session ends.
	for {
		phase := coord.State().Phase
		if phase != search.Pending && phase != search.InFlight {
			break
		}
		select {
		case <-settled:
		case <-ctx.Done():
			return 1
		case <-time.After(cfg.SearchQuietPeriod + budget + time.Second):
			log.Printf("search did not settle")
			return 1
		}
	}
	if coord.State().Err != nil {
		return 1
	}
	return 0
}

func printState(out io.Writer, s search.State) {
	switch s.Phase {
	case search.Pending:
		fmt.Fprintf(out, "… %q\n", s.Query)
	case search.InFlight:
		fmt.Fprintf(out, "searching %q (#%d)\n", s.Query, s.Seq)
	case search.Settled:
		if msg := s.Message(); msg != "" {
			fmt.Fprintln(out, msg)
		}
		for _, r := range s.Routes {
			fmt.Fprintf(out, "  %-6s %s (%d stops)\n", r.ShortName, r.LongName, len(r.Stops))
		}
	}
}

func runJourney(ctx context.Context, budget time.Duration, finder catalog.JourneyFinder, pub *publisher.NATSPublisher, mcol *metrics.Collector, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("journey", flag.ContinueOnError)
	from := fs.String("from", "", "origin stop name")
	to := fs.String("to", "", "destination stop name")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var opts []journey.PlannerOption
	if m := wrapPlanMetrics(mcol); m != nil {
		opts = append(opts, journey.WithPlanMetrics(m))
	}
	if pub != nil {
		opts = append(opts, journey.WithPlanListener(pub))
	}
	planner := journey.NewPlanner(finder, opts...)

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	options, err := planner.Plan(ctx, *from, *to)
	if err != nil {
		log.Printf("plan journey: %v", err)
		fmt.Fprintln(out, journey.UserMessage(err))
		return 1
	}
	if len(options) == 0 {
		fmt.Fprintln(out, "No journey found")
		return 0
	}
	for _, o := range options {
		mark := ""
		if o.Duration.Estimated() {
			mark = "~"
		}
		fmt.Fprintf(out, "%-6s %s\n  %s → %s · %s%.0f mins\n  %d stops in between\n",
			o.Leg.RouteNumber, o.Leg.TripHeadsign, o.Leg.StartTime, o.Leg.EndTime, mark, o.Duration.Minutes, o.Leg.StopsInBetween)
	}
	return 0
}

func runItinerary(ctx context.Context, budget time.Duration, searcher catalog.RouteSearcher, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("itinerary", flag.ContinueOnError)
	routeID := fs.String("route", "", "route id or route number")
	from := fs.String("from", "", "first stop (id or name)")
	to := fs.String("to", "", "second stop (id or name)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	routes, err := searcher.SearchRoutes(ctx, *routeID)
	if err != nil {
		log.Printf("find route %q: %v", *routeID, err)
		return 1
	}
	route, ok := pickRoute(routes, *routeID)
	if !ok {
		fmt.Fprintf(out, "route %q not found\n", *routeID)
		return 1
	}

	it, err := journey.ComputeItineraryByStop(route, *from, *to)
	if err != nil {
		log.Printf("itinerary: %v", err)
		return 1
	}
	fmt.Fprintf(out, "%s %s: %d stops, %.0f mins\n", route.ShortName, route.LongName, it.NumStops, it.TotalTime)
	return 0
}

func pickRoute(routes []transit.Route, key string) (transit.Route, bool) {
	key = strings.TrimSpace(key)
	for _, r := range routes {
		if r.RouteID == key || strings.EqualFold(r.ShortName, key) {
			return r, true
		}
	}
	return transit.Route{}, false
}
