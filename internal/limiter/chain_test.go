package limiter

import (
	"context"
	"errors"
	"testing"
	"time"
)

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/identity"
	"github.com/nanjiek/pixiu-cats/internal/types"
)

type failingStore struct{ err error }

func (f failingStore) Take(context.Context, string, string, Rate, time.Time) (types.Decision, error) {
	return types.Decision{Allowed: false, Err: f.err}, f.err
}

type countingThrottle struct {
	name  string
	calls int
	dec   types.Decision
}

func (c *countingThrottle) Name() string { return c.name }

func (c *countingThrottle) Allow(context.Context, Request) (types.Decision, error) {
	c.calls++
	return c.dec, nil
}

func newLowRequestChain(t *testing.T, store QuotaStore, policy string) *Chain {
	t.Helper()
	b, err := NewBlackoutWindow(3, 5, "UTC")
	require.NoError(t, err)
	q, err := NewScopedQuota("low_request", perMinute, nil, store)
	require.NoError(t, err)
	return NewChain(policy, nil, b, q)
}

func anonRequest(now time.Time) Request {
	return Request{Endpoint: "cats", Method: "GET", Identity: identity.Anonymous("10.0.0.1"), Now: now}
}

func TestChainEmptyAllows(t *testing.T) {
	dec, err := NewChain("", nil).Allow(context.Background(), anonRequest(at(12, 0)))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestChainBlackoutDoesNotConsumeQuota(t *testing.T) {
	store := NewMemoryStore()
	c := newLowRequestChain(t, store, "")
	ctx := context.Background()

	dec, err := c.Allow(ctx, anonRequest(at(3, 59)))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, "blackout_window", dec.Reason)
	assert.Equal(t, 0, store.Len())

	dec, err = c.Allow(ctx, anonRequest(at(5, 0)))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestChainQuotaDenial(t *testing.T) {
	c := newLowRequestChain(t, NewMemoryStore(), "")
	ctx := context.Background()

	dec, _ := c.Allow(ctx, anonRequest(at(12, 0)))
	assert.True(t, dec.Allowed)

	dec, err := c.Allow(ctx, anonRequest(at(12, 0).Add(10*time.Second)))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, "scope:low_request", dec.Rule)
	assert.Equal(t, "quota_exceeded", dec.Reason)
	assert.Equal(t, 50*time.Second, dec.RetryAfter())
}

func TestChainShortCircuits(t *testing.T) {
	deny := &countingThrottle{name: "deny", dec: types.Deny("deny", "nope", time.Second)}
	after := &countingThrottle{name: "after", dec: types.Allow("after", "ok")}

	dec, err := NewChain("", nil, deny, after).Allow(context.Background(), anonRequest(at(12, 0)))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 1, deny.calls)
	assert.Equal(t, 0, after.calls)
}

func TestChainFailClosed(t *testing.T) {
	boom := errors.New("redis down")
	c := newLowRequestChain(t, failingStore{err: boom}, "fail-closed")

	dec, err := c.Allow(context.Background(), anonRequest(at(12, 0)))
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, "fail_closed", dec.Reason)
	assert.ErrorIs(t, dec.Err, boom)
}

func TestChainFailOpen(t *testing.T) {
	c := newLowRequestChain(t, failingStore{err: errors.New("redis down")}, "fail-open")

	dec, err := c.Allow(context.Background(), anonRequest(at(12, 0)))
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, "fail_open", dec.Reason)
}

func TestChainUnknownPolicyFailsClosed(t *testing.T) {
	c := newLowRequestChain(t, failingStore{err: errors.New("x")}, "whatever")

	dec, _ := c.Allow(context.Background(), anonRequest(at(12, 0)))
	assert.False(t, dec.Allowed)
}

func TestScopedQuotaPerClientDims(t *testing.T) {
	store := NewMemoryStore()
	q, err := NewScopedQuota("per_client", perMinute, []string{"client"}, store)
	require.NoError(t, err)
	ctx := context.Background()
	now := at(12, 0)

	a := Request{Endpoint: "cats", Method: "GET", Identity: identity.User("alice"), Now: now}
	b := Request{Endpoint: "cats", Method: "GET", Identity: identity.User("bob"), Now: now}

	dec, _ := q.Allow(ctx, a)
	assert.True(t, dec.Allowed)
	dec, _ = q.Allow(ctx, b)
	assert.True(t, dec.Allowed)
	dec, _ = q.Allow(ctx, a)
	assert.False(t, dec.Allowed)
}

func TestNewScopedQuotaValidation(t *testing.T) {
	_, err := NewScopedQuota("", perMinute, nil, NewMemoryStore())
	assert.Error(t, err)
	_, err = NewScopedQuota("s", Rate{}, nil, NewMemoryStore())
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = NewScopedQuota("s", perMinute, nil, nil)
	assert.Error(t, err)
}
