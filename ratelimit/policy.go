// Package ratelimit throttles outbound provider calls from the quota and
// retry hints the provider returned on earlier calls.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-service-adapters/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// State is what is known about one provider endpoint.
type State struct {
	Key            core.RateLimitKey
	Limit          int
	Remaining      int
	ResetAt        *time.Time
	RetryAfter     *time.Duration
	ThrottledUntil *time.Time
	LastStatus     int
	Attempts       int
	UpdatedAt      time.Time
}

type StateStore interface {
	Get(ctx context.Context, key core.RateLimitKey) (State, error)
	Upsert(ctx context.Context, state State) error
}

type ThrottledError struct {
	ProviderID string
	Endpoint   string
	RetryAfter time.Duration
}

func (e ThrottledError) Error() string {
	return fmt.Sprintf("ratelimit: %s at %s is throttled for another %s", e.ProviderID, e.Endpoint, e.RetryAfter)
}

func (e ThrottledError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{
		"provider_id": e.ProviderID,
		"endpoint":    e.Endpoint,
	}
	if e.RetryAfter > 0 {
		metadata["retry_after_ms"] = e.RetryAfter.Milliseconds()
	}
	return goerrors.New(e.Error(), goerrors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(core.ServiceErrorRateLimited).
		WithMetadata(metadata)
}

// AdaptivePolicy never queues or retries. BeforeCall refuses while a throttle
// window is open or the advertised quota is spent; AfterCall opens windows on
// 429 responses, using Retry-After when present and doubling backoff otherwise.
type AdaptivePolicy struct {
	Store          StateStore
	Now            func() time.Time
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func NewAdaptivePolicy(store StateStore) *AdaptivePolicy {
	return &AdaptivePolicy{
		Store:          store,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
	}
}

func (p *AdaptivePolicy) BeforeCall(ctx context.Context, key core.RateLimitKey) error {
	if p == nil || p.Store == nil {
		return nil
	}
	state, err := p.Store.Get(ctx, normalizeKey(key))
	if errors.Is(err, ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	now := p.clock()
	var blockedUntil time.Time
	if state.ThrottledUntil != nil {
		blockedUntil = *state.ThrottledUntil
	}
	if state.Remaining == 0 && state.ResetAt != nil && state.ResetAt.After(blockedUntil) {
		blockedUntil = *state.ResetAt
	}
	if !now.Before(blockedUntil) {
		return nil
	}
	return ThrottledError{
		ProviderID: state.Key.ProviderID,
		Endpoint:   state.Key.Endpoint,
		RetryAfter: blockedUntil.Sub(now),
	}
}

func (p *AdaptivePolicy) AfterCall(ctx context.Context, key core.RateLimitKey, res core.ProviderResponseMeta) error {
	if p == nil || p.Store == nil {
		return nil
	}
	key = normalizeKey(key)
	state, err := p.Store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrStateNotFound):
		state = State{Key: key}
	case err != nil:
		return err
	}

	now := p.clock()
	hints := readQuotaHints(res.Headers, now)
	state.LastStatus = res.StatusCode
	state.UpdatedAt = now
	state.RetryAfter = hints.retryAfter
	if hints.limit != nil {
		state.Limit = *hints.limit
	}
	if hints.remaining != nil {
		state.Remaining = *hints.remaining
	}
	if hints.resetAt != nil {
		state.ResetAt = hints.resetAt
	}

	throttled := res.StatusCode == http.StatusTooManyRequests ||
		(res.StatusCode < http.StatusInternalServerError && hints.present() && state.Remaining == 0)
	if !throttled {
		state.Attempts = 0
		state.ThrottledUntil = nil
		return p.Store.Upsert(ctx, state)
	}

	state.Attempts++
	wait := p.backoff(state.Attempts)
	if hints.retryAfter != nil {
		wait = *hints.retryAfter
	}
	until := now.Add(wait)
	state.ThrottledUntil = &until
	return p.Store.Upsert(ctx, state)
}

func (p *AdaptivePolicy) clock() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

// backoff doubles InitialBackoff per consecutive throttled reply, capped at
// MaxBackoff.
func (p *AdaptivePolicy) backoff(attempt int) time.Duration {
	base, ceiling := p.InitialBackoff, p.MaxBackoff
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	wait := base
	for step := 1; step < attempt && wait < ceiling; step++ {
		wait *= 2
	}
	return min(wait, ceiling)
}

type quotaHints struct {
	limit      *int
	remaining  *int
	resetAt    *time.Time
	retryAfter *time.Duration
}

func (h quotaHints) present() bool {
	return h.limit != nil || h.remaining != nil || h.resetAt != nil || h.retryAfter != nil
}

// readQuotaHints understands the X-RateLimit-* family, where reset is a unix
// timestamp, and the unprefixed RateLimit-* fields, where reset is seconds
// from now.
func readQuotaHints(headers http.Header, now time.Time) quotaHints {
	var hints quotaHints
	if headers == nil {
		return hints
	}
	hints.limit = firstInt(headers, "X-RateLimit-Limit", "RateLimit-Limit")
	hints.remaining = firstInt(headers, "X-RateLimit-Remaining", "RateLimit-Remaining")

	if unix := firstInt(headers, "X-RateLimit-Reset"); unix != nil && *unix > 0 {
		at := time.Unix(int64(*unix), 0).UTC()
		hints.resetAt = &at
	} else if delta := firstInt(headers, "RateLimit-Reset"); delta != nil && *delta >= 0 {
		at := now.Add(time.Duration(*delta) * time.Second)
		hints.resetAt = &at
	}

	if raw := strings.TrimSpace(headers.Get("Retry-After")); raw != "" {
		var wait time.Duration
		if seconds, err := strconv.Atoi(raw); err == nil {
			wait = time.Duration(seconds) * time.Second
		} else if at, err := http.ParseTime(raw); err == nil {
			wait = at.Sub(now)
		}
		if wait > 0 {
			hints.retryAfter = &wait
		}
	}
	return hints
}

func firstInt(headers http.Header, names ...string) *int {
	for _, name := range names {
		raw := strings.TrimSpace(headers.Get(name))
		if raw == "" {
			continue
		}
		if value, err := strconv.Atoi(raw); err == nil {
			return &value
		}
	}
	return nil
}

func normalizeKey(key core.RateLimitKey) core.RateLimitKey {
	return core.RateLimitKey{
		ProviderID: strings.ToLower(strings.TrimSpace(key.ProviderID)),
		Endpoint:   strings.ToLower(strings.TrimSpace(key.Endpoint)),
	}
}

// MemoryStateStore keeps state for the life of the process.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[core.RateLimitKey]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: map[core.RateLimitKey]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key core.RateLimitKey) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.states[normalizeKey(key)]; ok {
		return state, nil
	}
	return State{}, ErrStateNotFound
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	state.Key = normalizeKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.states == nil {
		s.states = map[core.RateLimitKey]State{}
	}
	s.states[state.Key] = state
	return nil
}
