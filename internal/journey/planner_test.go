package journey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityride/internal/transit"
)

type stubFinder struct {
	mu    sync.Mutex
	calls int
	legs  []transit.TripLeg
	err   error
	block chan struct{}
}

func (f *stubFinder) GetJourney(ctx context.Context, from, to string) ([]transit.TripLeg, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.legs, f.err
}

type stubListener struct {
	from, to string
	options  []JourneyOption
}

func (l *stubListener) PublishJourney(from, to string, options []JourneyOption) error {
	l.from, l.to, l.options = from, to, options
	return nil
}

type stubPlanMetrics struct{ planned, failed, estimated, measured int }

func (m *stubPlanMetrics) JourneyPlanned(int, time.Duration) { m.planned++ }
func (m *stubPlanMetrics) JourneyFailed()                    { m.failed++ }
func (m *stubPlanMetrics) DurationResolved(estimated bool) {
	if estimated {
		m.estimated++
	} else {
		m.measured++
	}
}

func TestPlanner_Plan(t *testing.T) {
	finder := &stubFinder{legs: []transit.TripLeg{
		{StartTime: "09:00:00", EndTime: "09:25:00", StopsInBetween: 5, RouteNumber: "2", TripHeadsign: "Shivajinagar"},
		{StartTime: "bad", EndTime: "09:40:00", StopsInBetween: 4, RouteNumber: "103", TripHeadsign: "Hinjawadi Phase 3"},
	}}
	l := &stubListener{}
	m := &stubPlanMetrics{}
	p := NewPlanner(finder, WithPlanListener(l), WithPlanMetrics(m))

	got, err := p.Plan(context.Background(), " Katraj ", "Shivajinagar")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Duration{Minutes: 25, Source: Measured}, got[0].Duration)
	assert.Equal(t, Duration{Minutes: 12, Source: Estimated}, got[1].Duration)
	assert.Equal(t, "103", got[1].Leg.RouteNumber)

	assert.Equal(t, "Katraj", l.from)
	assert.Len(t, l.options, 2)
	assert.Equal(t, 1, m.planned)
	assert.Equal(t, 1, m.estimated)
	assert.Equal(t, 1, m.measured)
}

func TestPlanner_MissingStops(t *testing.T) {
	finder := &stubFinder{}
	p := NewPlanner(finder)

	for _, in := range [][2]string{{"", "Kharadi"}, {"Katraj", "  "}, {"", ""}} {
		_, err := p.Plan(context.Background(), in[0], in[1])
		assert.ErrorIs(t, err, ErrMissingStops)
		assert.Equal(t, "Enter both From and To stops", UserMessage(err))
	}
	assert.Zero(t, finder.calls)
}

func TestPlanner_NoJourney(t *testing.T) {
	p := NewPlanner(&stubFinder{})

	got, err := p.Plan(context.Background(), "Viman Nagar", "Hinjawadi")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPlanner_NetworkFailure(t *testing.T) {
	m := &stubPlanMetrics{}
	p := NewPlanner(&stubFinder{err: errors.New("timeout")}, WithPlanMetrics(m))

	_, err := p.Plan(context.Background(), "Katraj", "Pune Station")
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Failed to fetch journeys. Please try again.", UserMessage(err))
	assert.Equal(t, 1, m.failed)
}

func TestPlanner_SupersededPlan(t *testing.T) {
	block := make(chan struct{})
	slow := &stubFinder{block: block, legs: []transit.TripLeg{{RouteNumber: "old"}}}
	p := NewPlanner(slow)

	errc := make(chan error, 1)
	go func() {
		_, err := p.Plan(context.Background(), "Katraj", "Swargate")
		errc <- err
	}()
	require.Eventually(t, func() bool {
		slow.mu.Lock()
		defer slow.mu.Unlock()
		return slow.calls == 1
	}, time.Second, time.Millisecond)

	slow.mu.Lock()
	slow.block = nil
	slow.legs = []transit.TripLeg{{RouteNumber: "new"}}
	slow.mu.Unlock()
	got, err := p.Plan(context.Background(), "Katraj", "Kharadi")
	require.NoError(t, err)
	assert.Equal(t, "new", got[0].Leg.RouteNumber)

	close(block)
	assert.ErrorIs(t, <-errc, ErrSuperseded)
}
