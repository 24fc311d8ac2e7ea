package reactor

import (
	"net"
	"time"

	"github.com/joeycumines/go-catrate"
)

// RateLimiter bounds accepted connections per peer address using a
// sliding-window limiter keyed by the peer's IP (the port of a
// host:port peer string is dropped, so every connection from one
// source shares a budget). This is
// a supplement beyond handy's TcpServer, which accepts unconditionally;
// a production accept loop benefits from capping connections/sec per
// source.
type RateLimiter struct {
	limiter *catrate.Limiter
}

// NewRateLimiter wraps catrate.NewLimiter with the given per-window
// budgets, e.g. {time.Second: 5, time.Minute: 100}.
func NewRateLimiter(rates map[time.Duration]int) *RateLimiter {
	return &RateLimiter{limiter: catrate.NewLimiter(rates)}
}

// Allow reports whether a new connection from peer is within budget.
func (r *RateLimiter) Allow(peer string) bool {
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	_, ok := r.limiter.Allow(peer)
	return ok
}
