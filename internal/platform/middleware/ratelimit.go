package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

const (
	sweepInterval = time.Minute
	staleAfter    = 3 * time.Minute
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// clientLimiters tracks one token-bucket limiter per client IP and
// evicts entries not seen for a while.
type clientLimiters struct {
	mu      sync.Mutex
	clients map[string]*limiterEntry
	r       rate.Limit
	burst   int
	done    chan struct{}
}

func newClientLimiters(ctx context.Context, rps float64, burst int) *clientLimiters {
	cl := &clientLimiters{
		clients: make(map[string]*limiterEntry),
		r:       rate.Limit(rps),
		burst:   burst,
		done:    make(chan struct{}),
	}
	go cl.sweep(ctx)
	return cl
}

// sweep evicts stale limiters until ctx is cancelled; done is closed on
// exit.
func (cl *clientLimiters) sweep(ctx context.Context) {
	defer close(cl.done)
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cl.mu.Lock()
			for ip, e := range cl.clients {
				if time.Since(e.seen) > staleAfter {
					delete(cl.clients, ip)
				}
			}
			cl.mu.Unlock()
		}
	}
}

func (cl *clientLimiters) get(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if e, ok := cl.clients[ip]; ok {
		e.seen = time.Now()
		return e.lim
	}
	l := rate.NewLimiter(cl.r, cl.burst)
	cl.clients[ip] = &limiterEntry{lim: l, seen: time.Now()}
	return l
}

// RateLimit limits each client IP to the configured request rate. The
// background sweeper exits when ctx is cancelled.
func RateLimit(ctx context.Context, cfg RateLimitConfig) echo.MiddlewareFunc {
	limiters := newClientLimiters(ctx, cfg.RequestsPerSecond, cfg.BurstSize)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiters.get(c.RealIP()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
