package search

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"cityride/internal/catalog"
	"cityride/internal/transit"
)

// DefaultQuietPeriod is the debounce delay after the last keystroke.
const DefaultQuietPeriod = 500 * time.Millisecond

// Metrics receives coordinator events; nil disables reporting.
type Metrics interface {
	Keystroke()
	SearchIssued()
	SearchSettled(d time.Duration, routes int)
	SearchFailed()
	StaleDiscarded()
}

// Listener is told about every settled search.
type Listener interface {
	PublishSearch(s State) error
}

// Coordinator turns keystrokes into debounced route searches. At most one
// quiet-period timer is armed at a time, and only the completion of the most
// recently issued request is applied; older responses are dropped on arrival.
type Coordinator struct {
	searcher catalog.RouteSearcher
	quiet    time.Duration
	timeout  time.Duration // per request; 0 means none
	clock    Clock
	observer func(State)
	metrics  Metrics
	listener Listener

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	seq     uint64
	pending *pendingSearch // armed timer; nil when none
	closed  bool
	wg      sync.WaitGroup
}

type pendingSearch struct {
	query string
	timer Timer
}

type Option func(*Coordinator)

func WithQuietPeriod(d time.Duration) Option {
	return func(c *Coordinator) { c.quiet = d }
}

// WithRequestTimeout bounds each search. A search that runs past d settles
// with ErrNetwork.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

func WithClock(clk Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// WithObserver registers fn to receive every applied state. fn runs while
// the coordinator is locked and must not call back into it.
func WithObserver(fn func(State)) Option {
	return func(c *Coordinator) { c.observer = fn }
}

func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithListener(l Listener) Option {
	return func(c *Coordinator) { c.listener = l }
}

// NewCoordinator creates an Idle session. Requests it issues run under a
// context derived from parent and are canceled by Close.
func NewCoordinator(parent context.Context, searcher catalog.RouteSearcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		searcher: searcher,
		quiet:    DefaultQuietPeriod,
		clock:    realClock{},
	}
	for _, o := range opts {
		o(c)
	}
	c.ctx, c.cancel = context.WithCancel(parent)
	return c
}

// State returns a snapshot of the current session state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Type records the full text of the search box after a keystroke. Any armed
// timer is dropped. A non-empty query arms a new one; an empty query settles
// at once with no routes and makes any in-flight request stale.
func (c *Coordinator) Type(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.metrics != nil {
		c.metrics.Keystroke()
	}
	c.disarm()

	if query != "" {
		p := &pendingSearch{query: query}
		p.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(p) })
		c.pending = p
		c.apply(State{Phase: Pending, Query: query, Seq: c.seq, Routes: c.state.Routes})
		c.mu.Unlock()
		return
	}

	c.seq++
	cleared := State{Phase: Settled, Seq: c.seq, Routes: []transit.Route{}}
	c.apply(cleared)
	c.mu.Unlock()
	c.publish(cleared)
}

// Submit re-issues the current query through the quiet period.
func (c *Coordinator) Submit() {
	c.Type(c.State().Query)
}

// Close cancels the armed timer and any outstanding request, and waits for
// request goroutines to return. No state is applied after Close.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.disarm()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Coordinator) disarm() {
	if c.pending != nil {
		c.pending.timer.Stop()
		c.pending = nil
	}
}

// fire runs when p's quiet period elapses. A timer that was replaced after
// it had already fired finds c.pending != p and does nothing.
func (c *Coordinator) fire(p *pendingSearch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.pending != p {
		return
	}
	c.pending = nil
	c.seq++
	seq := c.seq
	c.apply(State{Phase: InFlight, Query: p.query, Seq: seq, Routes: c.state.Routes, Loading: true})
	if c.metrics != nil {
		c.metrics.SearchIssued()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx := c.ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		start := time.Now()
		routes, err := c.searcher.SearchRoutes(ctx, p.query)
		c.complete(seq, routes, err, time.Since(start))
	}()
}

func (c *Coordinator) complete(seq uint64, routes []transit.Route, err error, elapsed time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state.Phase != InFlight || c.state.Seq != seq {
		c.mu.Unlock()
		if c.metrics != nil {
			c.metrics.StaleDiscarded()
		}
		return
	}

	next := State{Phase: Settled, Query: c.state.Query, Seq: seq}
	if err != nil {
		next.Err = fmt.Errorf("search %q: %w: %w", next.Query, ErrNetwork, err)
		log.Printf("route search failed seq=%d query=%q dur=%dms err=%v", seq, next.Query, elapsed.Milliseconds(), err)
		if c.metrics != nil {
			c.metrics.SearchFailed()
		}
	} else {
		if routes == nil {
			routes = []transit.Route{}
		}
		next.Routes = routes
		if c.metrics != nil {
			c.metrics.SearchSettled(elapsed, len(routes))
		}
	}
	c.apply(next)
	c.mu.Unlock()
	c.publish(next)
}

// publish hands a settled state to the listener. Caller must not hold c.mu.
func (c *Coordinator) publish(s State) {
	if c.listener == nil {
		return
	}
	if err := c.listener.PublishSearch(s); err != nil {
		log.Printf("publish search seq=%d: %v", s.Seq, err)
	}
}

// apply replaces the state. Caller holds c.mu.
func (c *Coordinator) apply(s State) {
	c.state = s
	if c.observer != nil {
		c.observer(s)
	}
}
