package admission

import (
	"errors"
	"fmt"
	"sort"
)

import (
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/access"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/limiter"
	"github.com/nanjiek/pixiu-cats/internal/listing"
	"github.com/nanjiek/pixiu-cats/internal/paginate"
	"github.com/nanjiek/pixiu-cats/internal/rcu"
)

// Endpoints is an immutable set of endpoint configurations by name.
type Endpoints map[string]*Endpoint

// Build turns configuration into endpoints. Every endpoint's throttle
// rules share store, so rebuilding keeps quota state.
func Build(cfg *config.Config, store limiter.QuotaStore, logger *zap.Logger) (Endpoints, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var errs []error

	scopes := make(map[string]*limiter.ScopedQuota, len(cfg.Throttle.Scopes))
	for name, sc := range cfg.Throttle.Scopes {
		r, err := limiter.ParseRate(sc.Rate)
		if err != nil {
			errs = append(errs, fmt.Errorf("throttle.scopes.%s: %w", name, err))
			continue
		}
		if store == nil {
			continue
		}
		q, err := limiter.NewScopedQuota(name, r, sc.Dims, store)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scopes[name] = q
	}

	var blackout *limiter.BlackoutWindow
	bc := cfg.Throttle.Blackout
	if b, err := limiter.NewBlackoutWindow(bc.StartHour, bc.EndHour, bc.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("throttle.blackout: %w", err))
	} else {
		blackout = b
	}

	out := make(Endpoints, len(cfg.Endpoints))
	for name, ec := range cfg.Endpoints {
		policy, err := access.ParsePolicy(ec.Access)
		if err != nil {
			errs = append(errs, fmt.Errorf("endpoints.%s: %w", name, err))
			continue
		}
		pager, err := paginate.New(ec.Pagination.Strategy, ec.Pagination.PageSize, ec.Pagination.MaxLimit)
		if err != nil {
			errs = append(errs, fmt.Errorf("endpoints.%s: %w", name, err))
			continue
		}

		var rules []limiter.Throttle
		if ec.Throttle.Blackout && blackout != nil {
			rules = append(rules, blackout)
		}
		for _, sn := range ec.Throttle.Scopes {
			if q, ok := scopes[sn]; ok {
				rules = append(rules, q)
			} else if _, defined := cfg.Throttle.Scopes[sn]; !defined {
				errs = append(errs, fmt.Errorf("endpoints.%s: undefined throttle scope %q", name, sn))
			}
		}

		ep := &Endpoint{
			Name:   name,
			Access: access.NewEvaluator(policy),
			Pager:  pager,
			Listing: listing.Options{
				FilterFields:   ec.FilterFields,
				SearchFields:   ec.SearchFields,
				OrderingFields: ec.OrderingFields,
				Ordering:       ec.Ordering,
			},
		}
		rulesN := 0
		if len(rules) > 0 {
			chain := limiter.NewChain(cfg.Throttle.FailPolicy, logger, rules...)
			ep.Throttle = chain
			rulesN = chain.Len()
		}
		out[name] = ep
		logger.Debug("endpoint built",
			zap.String("endpoint", name),
			zap.String("access", policy.Name()),
			zap.String("pagination", pager.Name()),
			zap.Int("throttle_rules", rulesN))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Registry serves the current endpoint set to request handlers and swaps
// it atomically on reload.
type Registry struct {
	snap   *rcu.Snapshot[Endpoints]
	store  limiter.QuotaStore
	logger *zap.Logger
}

func NewRegistry(cfg *config.Config, store limiter.QuotaStore, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	eps, err := Build(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	return &Registry{snap: rcu.NewSnapshot(&eps), store: store, logger: logger}, nil
}

// Get returns the named endpoint of the current snapshot.
func (r *Registry) Get(name string) (*Endpoint, bool) {
	eps := r.snap.Load()
	if eps == nil {
		return nil, false
	}
	ep, ok := (*eps)[name]
	return ep, ok
}

// Names lists the configured endpoints in sorted order.
func (r *Registry) Names() []string {
	eps := *r.snap.Load()
	names := make([]string, 0, len(eps))
	for n := range eps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reload rebuilds the endpoints from cfg. On error the current set stays
// in place. Quota counters survive because the store is reused.
func (r *Registry) Reload(cfg *config.Config) error {
	err := r.snap.Update(func(*Endpoints) (*Endpoints, error) {
		eps, err := Build(cfg, r.store, r.logger)
		if err != nil {
			return nil, err
		}
		return &eps, nil
	})
	if err != nil {
		r.logger.Warn("endpoint reload rejected", zap.Error(err))
		return err
	}
	r.logger.Info("endpoints reloaded", zap.Strings("endpoints", r.Names()))
	return nil
}
