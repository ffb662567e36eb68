package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/eternal-ai/api/internal/model"
)

// RateLimiter keeps a token bucket per caller. A bucket refills Rate
// tokens per Window and holds Rate+Burst. Buckets idle for two windows are
// evicted by a background sweep.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cfg     RateLimitConfig
	now     func() time.Time

	stop chan struct{}
	once sync.Once
	done chan struct{}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig holds rate limiter configuration. Zero values take the
// defaults: 100 per minute, burst 20, sweep every 5 minutes.
type RateLimitConfig struct {
	Rate    int
	Window  time.Duration
	Burst   int
	Cleanup time.Duration
	// TrustForwardedFor keys anonymous callers on the first
	// X-Forwarded-For hop. Only enable behind a proxy that sets it.
	TrustForwardedFor bool
}

// NewRateLimiter creates a rate limiter and starts its sweep
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst < 0 {
		cfg.Burst = 0
	} else if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}

	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		cfg:     cfg,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweep and waits for it
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) sweep() {
	defer close(rl.done)

	ticker := time.NewTicker(rl.cfg.Cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupExpired()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanupExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.cfg.Window)
	for key, b := range rl.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Allow takes a token for key. reset is when the next request would be
// accepted.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, reset time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		every := rate.Limit(float64(rl.cfg.Rate) / rl.cfg.Window.Seconds())
		b = &bucket{limiter: rate.NewLimiter(every, rl.cfg.Rate+rl.cfg.Burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	allowed = b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	if tokens >= 1 {
		return allowed, int(tokens), now
	}
	wait := time.Duration((1 - tokens) / float64(b.limiter.Limit()) * float64(time.Second))
	return allowed, 0, now.Add(wait)
}

// keyFor picks the bucket of a request
func (rl *RateLimiter) keyFor(r *http.Request) string {
	return callerKey(r, rl.clientIP(r))
}

// callerKey names the caller of a request: the user when auth already
// ran, then the bearer token, then the client address
func callerKey(r *http.Request, ip string) string {
	if uid := GetUserID(r.Context()); uid != "" {
		return "user:" + uid
	}
	if token, ok := bearerToken(r); ok {
		sum := sha256.Sum256([]byte(token))
		return "token:" + hex.EncodeToString(sum[:12])
	}
	return "ip:" + ip
}

func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.cfg.TrustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	return remoteHost(r)
}

// remoteHost is the host part of the peer address
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit limits requests per caller. Health probes are never limited.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/health/") {
				next.ServeHTTP(w, r)
				return
			}

			allowed, remaining, reset := limiter.Allow(limiter.keyFor(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limiter.cfg.Rate))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !allowed {
				retryAfter := max(int(reset.Sub(limiter.now()).Seconds()), 1)
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WithInstance(r.URL.Path).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
