// Package limiter implements the throttle rules of the admission pipeline.
//
// Two strategies exist:
//
//   - BlackoutWindow rejects every request during a fixed time-of-day window.
//     It is stateless and recomputed from the clock on each call.
//   - ScopedQuota admits a fixed number of requests per window for a named
//     scope. Its state lives in a QuotaStore: MemoryStore for a single
//     process, RedisStore when several instances must share counters.
//
// A Chain combines rules with logical AND, stopping at the first denial.
package limiter
