package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/types"
	"github.com/nanjiek/pixiu-cats/internal/util"
)

// ErrInvalidRate is returned for a non-positive limit or a window under
// MinWindow.
var ErrInvalidRate = errors.New("invalid quota rate")

// QuotaStore holds per-scope counters. Take must check and record in one
// atomic step: a request is either admitted and counted, or rejected and
// not counted.
type QuotaStore interface {
	Take(ctx context.Context, scope, dimKey string, r Rate, now time.Time) (types.Decision, error)
}

// ScopedQuota admits Rate.Limit requests per Rate.Window for a named scope.
// With no Dims the bucket is shared by every caller.
type ScopedQuota struct {
	Scope string
	Rate  Rate
	Dims  []string
	Store QuotaStore
}

func NewScopedQuota(scope string, r Rate, dims []string, store QuotaStore) (*ScopedQuota, error) {
	if scope == "" {
		return nil, errors.New("quota scope name is required")
	}
	if !r.valid() {
		return nil, fmt.Errorf("scope %s: %w", scope, ErrInvalidRate)
	}
	if store == nil {
		return nil, fmt.Errorf("scope %s: nil quota store", scope)
	}
	return &ScopedQuota{Scope: scope, Rate: r, Dims: dims, Store: store}, nil
}

func (q *ScopedQuota) Name() string { return "scope:" + q.Scope }

func (q *ScopedQuota) Allow(ctx context.Context, req Request) (types.Decision, error) {
	dimKey, err := util.HashDims(q.Dims, req.Dims())
	if err != nil {
		return types.Decision{Allowed: false, Rule: q.Name(), Reason: "dim_hash_failed", Err: err}, err
	}
	dec, err := q.Store.Take(ctx, q.Scope, dimKey, q.Rate, req.Now)
	dec.Rule = q.Name()
	return dec, err
}
