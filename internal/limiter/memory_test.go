package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/identity"
)

var perMinute = Rate{Limit: 1, Window: time.Minute}

func TestMemoryStoreOnePerWindow(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := at(12, 0)

	dec, err := s.Take(ctx, "low_request", "", perMinute, t0)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)

	dec, err = s.Take(ctx, "low_request", "", perMinute, t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, "quota_exceeded", dec.Reason)
	assert.Equal(t, 30*time.Second, dec.RetryAfter())

	dec, err = s.Take(ctx, "low_request", "", perMinute, t0.Add(59*time.Second))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)

	dec, err = s.Take(ctx, "low_request", "", perMinute, t0.Add(60*time.Second))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestMemoryStoreDeniedRequestsAreNotCounted(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := at(12, 0)

	_, _ = s.Take(ctx, "low_request", "", perMinute, t0)
	for i := 1; i < 60; i++ {
		dec, err := s.Take(ctx, "low_request", "", perMinute, t0.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
	}
	dec, err := s.Take(ctx, "low_request", "", perMinute, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestMemoryStoreSeparatesScopesAndKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := at(12, 0)

	a, _ := s.Take(ctx, "low_request", "", perMinute, t0)
	b, _ := s.Take(ctx, "burst", "", perMinute, t0)
	c, _ := s.Take(ctx, "low_request", "client-a", perMinute, t0)
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)
	assert.True(t, c.Allowed)
	assert.Equal(t, 3, s.Len())
}

func TestMemoryStoreBurstCapacity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := at(12, 0)
	r := Rate{Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		dec, err := s.Take(ctx, "s", "", r, t0)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, int64(2-i), dec.Remaining)
	}
	dec, _ := s.Take(ctx, "s", "", r, t0)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 20*time.Second, dec.RetryAfter())
}

func TestMemoryStoreConcurrentTakeAdmitsOne(t *testing.T) {
	s := NewMemoryStore()
	q, err := NewScopedQuota("low_request", perMinute, nil, s)
	require.NoError(t, err)
	req := Request{Endpoint: "cats", Method: "GET", Identity: identity.Anonymous("10.0.0.1"), Now: at(12, 0)}

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := q.Allow(context.Background(), req)
			if err == nil && dec.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), allowed.Load())
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore(WithIdleTTL(time.Minute))
	ctx := context.Background()
	t0 := at(12, 0)

	_, _ = s.Take(ctx, "short", "", perMinute, t0)
	_, _ = s.Take(ctx, "long", "", Rate{Limit: 1, Window: time.Hour}, t0)

	assert.Equal(t, 1, s.Cleanup(t0.Add(2*time.Minute)))
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 1, s.Cleanup(t0.Add(2*time.Hour)))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreInvalidRate(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Take(context.Background(), "s", "", Rate{}, at(12, 0))
	assert.ErrorIs(t, err, ErrInvalidRate)
}
