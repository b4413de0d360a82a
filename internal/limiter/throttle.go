package limiter

import (
	"context"
	"time"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/identity"
	"github.com/nanjiek/pixiu-cats/internal/types"
)

// Request is what a throttle rule sees of an inbound call.
type Request struct {
	Endpoint string
	Method   string
	Identity identity.Identity
	Now      time.Time
}

// Dims exposes the request as dimensions a quota scope may be keyed on.
func (r Request) Dims() map[string]string {
	return map[string]string{
		"client":   r.Identity.Key(),
		"endpoint": r.Endpoint,
		"method":   r.Method,
	}
}

// Throttle is a single rate-limiting rule.
type Throttle interface {
	Name() string
	Allow(ctx context.Context, req Request) (types.Decision, error)
}
