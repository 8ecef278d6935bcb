package ratelimit

import "github.com/goliatone/go-service-adapters/core"

var (
	_ core.RateLimitPolicy       = (*AdaptivePolicy)(nil)
	_ StateStore                 = (*MemoryStateStore)(nil)
	_ core.ServiceErrorConverter = ThrottledError{}
)
