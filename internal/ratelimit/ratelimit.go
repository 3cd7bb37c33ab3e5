package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"userdir/internal/auth"
	apperrors "userdir/internal/errors"
)

const keyPrefix = "ratelimit:"

// Counter is the shared windowed-counter backend. The cache client's
// IncrWithTTL satisfies it.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Gate admits or rejects requests against fixed-window counters. Increments
// are atomic per key, so concurrent requests from the same principal or IP
// cannot undercount. A failing counter backend fails open: admission control
// degrades before availability does.
type Gate struct {
	counter Counter
}

// NewGate creates a gate on the given counter backend.
func NewGate(counter Counter) *Gate {
	return &Gate{counter: counter}
}

// Allow records one request under key and reports whether it fits the limit
// for the window. When rejected, retryAfter hints when the window resets.
func (g *Gate) Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration) {
	windowKey := fmt.Sprintf("%s%s:%d", keyPrefix, key, time.Now().Unix()/int64(window.Seconds()))

	count, err := g.counter.IncrWithTTL(ctx, windowKey, window)
	if err != nil {
		return true, 0
	}
	if count <= int64(limit) {
		return true, 0
	}

	retryAfter, err = g.counter.TTL(ctx, windowKey)
	if err != nil || retryAfter <= 0 {
		retryAfter = window
	}
	return false, retryAfter
}

// KeyFunc derives the counter key for a request.
type KeyFunc func(c echo.Context) string

// ByIP keys on the client address, for anonymous endpoints.
func ByIP(class string) KeyFunc {
	return func(c echo.Context) string {
		return class + ":ip:" + c.RealIP()
	}
}

// ByPrincipal keys on the authenticated account, falling back to the client
// address when the request is anonymous.
func ByPrincipal(class string) KeyFunc {
	return func(c echo.Context) string {
		if principal := auth.Principal(c); principal != nil {
			return fmt.Sprintf("%s:account:%d", class, principal.ID)
		}
		return class + ":ip:" + c.RealIP()
	}
}

// Middleware gates requests before the handler runs, returning the
// rate-limited error (with retry-after) on rejection.
func Middleware(gate *Gate, keyFn KeyFunc, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			allowed, retryAfter := gate.Allow(c.Request().Context(), keyFn(c), limit, window)
			if !allowed {
				return &apperrors.RateLimitError{RetryAfter: retryAfter}
			}
			return next(c)
		}
	}
}
