package daemon

import (
	"context"
	"sync"

	"github.com/heyfriend/heyfriend/internal/backend"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Limiter keeps one token bucket per principal.
type Limiter struct {
	mu      sync.Mutex
	buckets map[backend.Principal]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter allows rps calls per second per principal with the given
// burst. A non-positive rps disables limiting.
func NewLimiter(rps float64, burst int) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		buckets: make(map[backend.Principal]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (l *Limiter) get(p backend.Principal) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok := l.buckets[p]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets[p] = lim
	return lim
}

// Allow takes a token from p's bucket.
func (l *Limiter) Allow(p backend.Principal) bool {
	return l.get(p).Allow()
}

// UnaryInterceptor rejects calls over the caller's budget with
// ResourceExhausted. It must run after the principal interceptor.
func (l *Limiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		p, _ := backend.PrincipalFrom(ctx)
		if !l.Allow(p) {
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", p)
		}
		return handler(ctx, req)
	}
}
