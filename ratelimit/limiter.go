// Package ratelimit implements fixed-window request counting on top of a
// shared counter store.
//
// A window starts with the first increment of a key, which also sets the key
// expiry to the window length. Requests are allowed while the count stays at
// or below the limit. Across a window boundary up to twice the limit can pass.
//
// The limiter fails open: when the counter store cannot be reached the request
// is allowed and a warning is logged.
package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	OutcomeAllowed     Outcome = "allowed"
	OutcomeRejected    Outcome = "rejected"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeBypassed    Outcome = "bypassed"
)

type Decision struct {
	Allowed   bool
	Outcome   Outcome
	Limit     int64
	Count     int64
	Remaining int64
	// ResetIn is the time left in the current window, zero when unknown.
	ResetIn time.Duration
	// RetryAfter is only set on rejection.
	RetryAfter time.Duration
}

type Options struct {
	Enabled bool
}

type Limiter struct {
	store   CounterStore
	enabled bool
}

func New(store CounterStore, opts Options) *Limiter {
	return &Limiter{store: store, enabled: opts.Enabled && store != nil}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow consumes one request of policy for the actor/scope pair.
func (l *Limiter) Allow(ctx context.Context, policy Policy, actor, scope string) Decision {
	return l.CheckAndConsume(ctx, policy.Key(actor, scope), policy.Window, policy.Max)
}

func (l *Limiter) CheckAndConsume(ctx context.Context, key string, window time.Duration, max int64) Decision {
	if !l.Enabled() {
		return record(key, Decision{Allowed: true, Outcome: OutcomeBypassed, Limit: max, Remaining: max})
	}

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		return l.failOpen(key, max, err)
	}

	if count == 1 {
		if err := l.store.Expire(ctx, key, window); err != nil {
			return l.failOpen(key, max, err)
		}
	}

	decision := Decision{
		Allowed:   count <= max,
		Outcome:   OutcomeAllowed,
		Limit:     max,
		Count:     count,
		Remaining: remaining(max, count),
		ResetIn:   window,
	}

	if count > 1 || !decision.Allowed {
		decision.ResetIn = l.resetIn(ctx, key, window)
	}

	if !decision.Allowed {
		decision.Outcome = OutcomeRejected
		decision.RetryAfter = decision.ResetIn
	}

	return record(key, decision)
}

func (l *Limiter) Remaining(ctx context.Context, key string, max int64) int64 {
	if !l.Enabled() {
		return max
	}

	count, _, err := l.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Rate limit store unavailable, reporting full allowance")
		return max
	}

	return remaining(max, count)
}

// resetIn reads the key TTL. A key that lost its expiry is re-armed so the
// counter cannot stay blocked forever.
func (l *Limiter) resetIn(ctx context.Context, key string, window time.Duration) time.Duration {
	ttl, err := l.store.TTL(ctx, key)
	if err != nil {
		return window
	}

	if ttl < 0 {
		if err := l.store.Expire(ctx, key, window); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Could not re-arm rate limit expiry")
		}
		return window
	}

	return ttl
}

func (l *Limiter) failOpen(key string, max int64, err error) Decision {
	log.Warn().Err(err).Str("key", key).Msg("Rate limit store unavailable, allowing request")
	return record(key, Decision{Allowed: true, Outcome: OutcomeUnavailable, Limit: max, Remaining: max})
}

func remaining(max, count int64) int64 {
	if count >= max {
		return 0
	}
	return max - count
}

func record(key string, d Decision) Decision {
	prefix := key
	if idx := strings.Index(key, ":"); idx > -1 {
		prefix = key[:idx]
	}
	decisionsMetric.WithLabelValues(prefix, string(d.Outcome)).Inc()
	return d
}
