package limiter

import (
	"context"
	"strings"
)

import (
	"go.uber.org/zap"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/types"
)

// Chain combines rules with logical AND. Rules run in order and the first
// denial wins, so stateless rules should come before quotas: a request
// rejected by the blackout window then never consumes quota.
type Chain struct {
	rules      []Throttle
	failPolicy string
	logger     *zap.Logger
}

// NewChain builds a chain. failPolicy decides what a store error means:
// "fail-open" skips the failing rule, anything else rejects the request.
func NewChain(failPolicy string, logger *zap.Logger, rules ...Throttle) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		rules:      rules,
		failPolicy: normalizeFailPolicy(failPolicy),
		logger:     logger,
	}
}

func (c *Chain) Name() string { return "chain" }

// Len returns the number of rules in the chain.
func (c *Chain) Len() int { return len(c.rules) }

func (c *Chain) Allow(ctx context.Context, req Request) (types.Decision, error) {
	if len(c.rules) == 0 {
		return types.Allow(c.Name(), "no_rules"), nil
	}

	anyError := false
	minRemaining := int64(-1)
	for _, rule := range c.rules {
		dec, err := rule.Allow(ctx, req)
		if err != nil {
			anyError = true
			if c.failPolicy == "fail-open" {
				c.logger.Warn("fail-open due to throttle error",
					zap.String("rule", rule.Name()), zap.Error(err))
				continue
			}
			return types.Decision{
				Allowed: false,
				Rule:    rule.Name(),
				Reason:  "fail_closed",
				Err:     err,
			}, nil
		}
		if !dec.Allowed {
			if dec.Rule == "" {
				dec.Rule = rule.Name()
			}
			return dec, nil
		}
		if dec.Remaining >= 0 && (minRemaining < 0 || dec.Remaining < minRemaining) {
			minRemaining = dec.Remaining
		}
	}

	out := types.Allow(c.Name(), "allowed")
	out.Remaining = minRemaining
	if anyError {
		out.Reason = "fail_open"
	}
	return out, nil
}

func normalizeFailPolicy(policy string) string {
	policy = strings.ToLower(strings.TrimSpace(policy))
	if policy != "fail-open" && policy != "fail-closed" {
		return "fail-closed"
	}
	return policy
}
