package types

import (
	"time"
)

// Decision is the outcome of a throttle evaluation.
// Kept in its own package so limiter strategies and the admission pipeline
// can share it without importing each other.
type Decision struct {
	Allowed      bool   // whether the request may proceed
	Remaining    int64  // quota left after this request (-1 when not applicable)
	RetryAfterMs int64  // suggested wait before retrying, in milliseconds
	Reason       string // machine-readable reason, e.g. "blackout_window"
	Rule         string // name of the rule that produced the decision
	Err          error  // store error, if any
}

// RetryAfter returns the retry hint as a duration.
func (d Decision) RetryAfter() time.Duration {
	return time.Duration(d.RetryAfterMs) * time.Millisecond
}

// Allow returns an allowing decision for the named rule.
func Allow(rule, reason string) Decision {
	return Decision{Allowed: true, Remaining: -1, Rule: rule, Reason: reason}
}

// Deny returns a denying decision with a retry hint.
func Deny(rule, reason string, retryAfter time.Duration) Decision {
	ms := retryAfter.Milliseconds()
	if retryAfter > 0 && ms == 0 {
		ms = 1
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfterMs: ms, Rule: rule, Reason: reason}
}
