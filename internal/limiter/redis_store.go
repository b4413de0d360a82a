package limiter

import (
	"context"
	"fmt"
	"time"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/repo"
	"github.com/nanjiek/pixiu-cats/internal/types"
)

// RedisStore keeps scope counters in Redis so every service instance
// shares them. Check and record run in a single Lua script.
type RedisStore struct {
	repo *repo.RedisRepo
}

func NewRedisStore(r *repo.RedisRepo) *RedisStore {
	if r == nil {
		panic("limiter: nil redis repo")
	}
	return &RedisStore{repo: r}
}

func (s *RedisStore) Take(ctx context.Context, scope, dimKey string, r Rate, now time.Time) (types.Decision, error) {
	if !r.valid() {
		return types.Decision{Allowed: false, Reason: "invalid_rate"}, fmt.Errorf("scope %s: %w", scope, ErrInvalidRate)
	}
	res, err := s.repo.TakeQuota(ctx, s.repo.KeyQuota(scope, dimKey), r.Limit, r.Window, now)
	if err != nil {
		return types.Decision{Allowed: false, Reason: "quota_store_failed", Err: err}, err
	}
	if !res.Allowed {
		return types.Deny("", "quota_exceeded", time.Duration(res.RetryAfterMs)*time.Millisecond), nil
	}
	return types.Decision{Allowed: true, Remaining: res.Remaining, Reason: "quota_ok"}, nil
}
