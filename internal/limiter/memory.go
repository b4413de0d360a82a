package limiter

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

import (
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/clock"
	"github.com/nanjiek/pixiu-cats/internal/types"
)

// MemoryStore keeps scope counters in process memory as token buckets of
// capacity Limit refilled at Limit per Window. For a 1-per-window scope
// this admits exactly one request per window since the last admitted one.
//
// State lives as long as the store; a restart forgets every counter.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	idleTTL time.Duration
}

type memoryEntry struct {
	lim      *rate.Limiter
	rate     Rate
	lastSeen time.Time
}

type MemoryOption func(*MemoryStore)

// WithIdleTTL sets how long an untouched bucket is kept before Cleanup
// may drop it. Buckets are never dropped before their window has passed.
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.idleTTL = d }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		idleTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Take(_ context.Context, scope, dimKey string, r Rate, now time.Time) (types.Decision, error) {
	if !r.valid() {
		return types.Decision{Allowed: false, Reason: "invalid_rate"}, fmt.Errorf("scope %s: %w", scope, ErrInvalidRate)
	}
	key := scope
	if dimKey != "" {
		key = scope + ":" + dimKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || ent.rate != r {
		ent = &memoryEntry{
			lim:  rate.NewLimiter(rate.Every(r.Interval()), int(r.Limit)),
			rate: r,
		}
		s.entries[key] = ent
	}
	ent.lastSeen = now

	if ent.lim.AllowN(now, 1) {
		return types.Decision{
			Allowed:   true,
			Remaining: int64(ent.lim.TokensAt(now)),
			Reason:    "quota_ok",
		}, nil
	}

	missing := 1 - ent.lim.TokensAt(now)
	wait := time.Duration(math.Ceil(missing * float64(r.Interval())))
	return types.Deny("", "quota_exceeded", wait), nil
}

// Len returns the number of live buckets.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops buckets idle for longer than both the idle TTL and their
// own window. Such buckets are full again, so dropping them loses nothing.
// It returns the number of buckets dropped.
func (s *MemoryStore) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for k, ent := range s.entries {
		idle := s.idleTTL
		if ent.rate.Window > idle {
			idle = ent.rate.Window
		}
		if now.Sub(ent.lastSeen) > idle {
			delete(s.entries, k)
			dropped++
		}
	}
	return dropped
}

// StartJanitor runs Cleanup every interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, clk clock.Clock, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := time.NewTicker(every)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if dropped := s.Cleanup(clk.Now()); dropped > 0 {
					logger.Debug("quota buckets evicted", zap.Int("dropped", dropped), zap.Int("live", s.Len()))
				}
			}
		}
	}()
}
