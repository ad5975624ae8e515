/*
Package limiter provides client-side rate limiting of outgoing requests per API host.

It utilizes the Token Bucket algorithm (rate.Limiter) so that scripted use of the
client cannot flood the backend. A limiter with a non-positive rate is disabled
and never blocks.
*/
package limiter

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostRateLimiter keeps one token bucket per API host.
type HostRateLimiter struct {
	// mu is used to protect concurrent access to the limits map.
	mu *sync.RWMutex

	// limits stores the map from host to the *rate.Limiter instance.
	limits map[string]*rate.Limiter

	// r is the number of requests allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size) of the limiter.
	b int
}

// NewHostRateLimiter creates a limiter allowing r requests per second with burst b per host.
func NewHostRateLimiter(r rate.Limit, b int) *HostRateLimiter {
	return &HostRateLimiter{
		mu:     &sync.RWMutex{},
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}
}

// Enabled reports whether the limiter ever blocks.
func (h *HostRateLimiter) Enabled() bool {
	return h != nil && h.r > 0
}

// GetLimiter retrieves the rate limiter for host, creating it on first use.
// It uses double-checked locking to ensure concurrent-safe creation.
func (h *HostRateLimiter) GetLimiter(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, exists := h.limits[host]
	h.mu.RUnlock()

	if !exists {
		h.mu.Lock()
		limiter, exists = h.limits[host]
		if !exists {
			limiter = rate.NewLimiter(h.r, h.b)
			h.limits[host] = limiter
		}
		h.mu.Unlock()
	}

	return limiter
}

// Wait blocks until a request to host is allowed or ctx is done.
func (h *HostRateLimiter) Wait(ctx context.Context, host string) error {
	if !h.Enabled() {
		return nil
	}
	return h.GetLimiter(host).Wait(ctx)
}
