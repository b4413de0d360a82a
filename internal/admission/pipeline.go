// Package admission runs every API request through a fixed sequence of
// gates: access evaluation, then throttling, then the data operation, then
// pagination for lists. Any gate may reject; rejections carry an
// *apperr.Error and nothing after the rejecting gate runs.
package admission

import (
	"context"
	"errors"
	"net/url"
	"time"
)

import (
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/apperr"
	"github.com/nanjiek/pixiu-cats/internal/clock"
	"github.com/nanjiek/pixiu-cats/internal/identity"
	"github.com/nanjiek/pixiu-cats/internal/limiter"
	"github.com/nanjiek/pixiu-cats/internal/listing"
	"github.com/nanjiek/pixiu-cats/internal/paginate"
	"github.com/nanjiek/pixiu-cats/internal/store"
)

// Request is the per-request context seen by every gate.
type Request struct {
	Endpoint string
	Action   access.Action
	Method   string
	Identity identity.Identity
	ID       int64    // target id, 0 for list and create
	URL      *url.URL // used for query parameters and page links
	Now      time.Time
	Stage    Stage
}

// Endpoint is the static admission configuration of one resource.
type Endpoint struct {
	Name     string
	Access   access.Evaluator
	Throttle limiter.Throttle // nil means unthrottled
	Pager    paginate.Paginator
	Listing  listing.Options
}

// Pipeline drives requests through the stages.
type Pipeline struct {
	clock    clock.Clock
	logger   *zap.Logger
	observer Observer
}

type Option func(*Pipeline)

// WithObserver installs a stage observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func New(clk clock.Clock, logger *zap.Logger, opts ...Option) *Pipeline {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{clock: clk, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) enter(req *Request, s Stage) {
	req.Stage = s
	if p.observer != nil {
		p.observer(req, s)
	}
}

// Admit runs the request-level gates: RECEIVED, ACCESS_CHECKED and
// RATE_CHECKED. Access always runs first, so a denied caller never
// consumes quota.
func (p *Pipeline) Admit(ctx context.Context, ep *Endpoint, req *Request) error {
	req.Endpoint = ep.Name
	req.Now = p.clock.Now()
	p.enter(req, StageReceived)

	areq := access.Request{Identity: req.Identity, Action: req.Action, Method: req.Method}
	if ep.Access.Evaluate(areq, nil) == access.Deny {
		return p.reject(req, apperr.Denied("you do not have permission to perform this action"), "access_denied")
	}
	p.enter(req, StageAccessChecked)

	if ep.Throttle != nil {
		dec, err := ep.Throttle.Allow(ctx, limiter.Request{
			Endpoint: ep.Name,
			Method:   req.Method,
			Identity: req.Identity,
			Now:      req.Now,
		})
		if err != nil {
			return p.reject(req, apperr.Upstream(err, "throttle store failed"), "throttle_error")
		}
		if !dec.Allowed {
			e := apperr.RateLimited(dec.Reason, dec.RetryAfter())
			if dec.Err != nil {
				e.Err = dec.Err
			}
			return p.reject(req, e, dec.Rule)
		}
	}
	p.enter(req, StageRateChecked)
	return nil
}

// authorizeObject is the object-level access check, run once the target
// record is loaded.
func (p *Pipeline) authorizeObject(ep *Endpoint, req *Request, rec any) error {
	owned, ok := rec.(access.Owned)
	if !ok {
		return nil
	}
	areq := access.Request{Identity: req.Identity, Action: req.Action, Method: req.Method}
	if ep.Access.Evaluate(areq, owned) == access.Deny {
		return p.reject(req, apperr.Denied("you do not have permission to perform this action"), "not_owner")
	}
	return nil
}

// fail classifies a storage or domain error and rejects the request.
func (p *Pipeline) fail(req *Request, err error) error {
	return p.reject(req, classify(err), "execute_failed")
}

func (p *Pipeline) reject(req *Request, err *apperr.Error, rule string) error {
	from := req.Stage
	p.enter(req, StageRejected)
	p.logger.Info("request rejected",
		zap.String("endpoint", req.Endpoint),
		zap.String("action", req.Action.String()),
		zap.String("identity", req.Identity.String()),
		zap.String("stage", from.String()),
		zap.String("kind", string(err.Kind)),
		zap.String("rule", rule),
		zap.String("reason", err.Reason),
		zap.Duration("retry_after", err.RetryAfter),
	)
	return err
}

func (p *Pipeline) respond(req *Request) {
	p.enter(req, StageResponded)
}

// classify maps collaborator errors onto the error taxonomy. Errors that
// are already classified pass through unchanged.
func classify(err error) *apperr.Error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, store.ErrNotFound):
		return &apperr.Error{Kind: apperr.KindNotFound, Message: "not found", Err: err}
	default:
		return apperr.Upstream(err, "storage operation failed")
	}
}

// List runs a list request: admit, load with the endpoint's listing query,
// map each record to its view, then paginate.
func List[T listing.Record, V any](
	ctx context.Context, p *Pipeline, ep *Endpoint, req *Request,
	load func(context.Context, listing.Query) ([]T, error),
	view func(T) V,
) (any, error) {
	if err := p.Admit(ctx, ep, req); err != nil {
		return nil, err
	}

	q, err := listing.Parse(query(req.URL), ep.Listing)
	if err != nil {
		return nil, p.fail(req, err)
	}
	recs, err := load(ctx, q)
	if err != nil {
		return nil, p.fail(req, err)
	}
	p.enter(req, StageExecuted)

	views := make([]V, 0, len(recs))
	for _, r := range recs {
		views = append(views, view(r))
	}

	pager := ep.Pager
	if pager == nil {
		pager = paginate.None{}
	}
	body, err := paginate.Apply(pager, views, req.URL)
	if err != nil {
		return nil, p.fail(req, err)
	}
	if pager.Bounded() {
		p.enter(req, StagePaginated)
	}
	p.respond(req)
	return body, nil
}

// Retrieve loads a single record by req.ID.
func Retrieve[T any, V any](
	ctx context.Context, p *Pipeline, ep *Endpoint, req *Request,
	load func(context.Context, int64) (T, error),
	view func(T) V,
) (V, error) {
	var zero V
	if err := p.Admit(ctx, ep, req); err != nil {
		return zero, err
	}
	rec, err := load(ctx, req.ID)
	if err != nil {
		return zero, p.fail(req, err)
	}
	if err := p.authorizeObject(ep, req, rec); err != nil {
		return zero, err
	}
	p.enter(req, StageExecuted)
	p.respond(req)
	return view(rec), nil
}

// Create runs exec once the request is admitted. There is no record yet,
// so only the request-level access check applies.
func Create[V any](
	ctx context.Context, p *Pipeline, ep *Endpoint, req *Request,
	exec func(context.Context) (V, error),
) (V, error) {
	var zero V
	if err := p.Admit(ctx, ep, req); err != nil {
		return zero, err
	}
	out, err := exec(ctx)
	if err != nil {
		return zero, p.fail(req, err)
	}
	p.enter(req, StageExecuted)
	p.respond(req)
	return out, nil
}

// Update loads the target, checks the caller against its owner, then runs
// exec on it.
func Update[T any, V any](
	ctx context.Context, p *Pipeline, ep *Endpoint, req *Request,
	load func(context.Context, int64) (T, error),
	exec func(context.Context, T) (V, error),
) (V, error) {
	var zero V
	if err := p.Admit(ctx, ep, req); err != nil {
		return zero, err
	}
	rec, err := load(ctx, req.ID)
	if err != nil {
		return zero, p.fail(req, err)
	}
	if err := p.authorizeObject(ep, req, rec); err != nil {
		return zero, err
	}
	out, err := exec(ctx, rec)
	if err != nil {
		return zero, p.fail(req, err)
	}
	p.enter(req, StageExecuted)
	p.respond(req)
	return out, nil
}

// Delete loads the target, checks ownership and removes it.
func Delete[T any](
	ctx context.Context, p *Pipeline, ep *Endpoint, req *Request,
	load func(context.Context, int64) (T, error),
	exec func(context.Context, T) error,
) error {
	_, err := Update(ctx, p, ep, req, load, func(ctx context.Context, rec T) (struct{}, error) {
		return struct{}{}, exec(ctx, rec)
	})
	return err
}

func query(u *url.URL) url.Values {
	if u == nil {
		return url.Values{}
	}
	return u.Query()
}
