package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityride/internal/transit"
)

type countingSearcher struct {
	calls int
	err   error
}

func (s *countingSearcher) SearchRoutes(_ context.Context, query string) ([]transit.Route, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []transit.Route{{RouteID: query}}, nil
}

func TestCachedSearcher_HitsCacheForNormalizedQuery(t *testing.T) {
	inner := &countingSearcher{}
	c := NewCachedSearcher(inner, 8, time.Minute)

	first, err := c.SearchRoutes(context.Background(), "Hinjawadi  Phase 3")
	require.NoError(t, err)
	second, err := c.SearchRoutes(context.Background(), " hinjawadi phase 3")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)

	c.Purge()
	_, err = c.SearchRoutes(context.Background(), "hinjawadi phase 3")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSearcher_DoesNotCacheFailures(t *testing.T) {
	inner := &countingSearcher{err: errors.New("boom")}
	c := NewCachedSearcher(inner, 8, 0)

	_, err := c.SearchRoutes(context.Background(), "Kharadi")
	require.Error(t, err)

	inner.err = nil
	got, err := c.SearchRoutes(context.Background(), "Kharadi")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, inner.calls)
}
