package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiterConfig holds the rate limit settings for the login endpoint.
type LoginLimiterConfig struct {
	Rate            rate.Limit    // sustained attempts per second per client
	Burst           int           // how many attempts a client can make at once
	CleanupInterval time.Duration // how often idle client entries are dropped
	IdleTTL         time.Duration // how long an entry may sit unused before cleanup
}

// DefaultLoginLimiterConfig allows 10 login attempts per minute per client
// IP with a burst of 5. Bcrypt makes each attempt expensive server-side;
// the limiter keeps a credential-stuffing run from monopolising CPU.
func DefaultLoginLimiterConfig() LoginLimiterConfig {
	return LoginLimiterConfig{
		Rate:            rate.Limit(10.0 / 60.0),
		Burst:           5,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         15 * time.Minute,
	}
}

// clientLimiter pairs a limiter with its last access time so idle entries
// can be reaped.
type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// LoginLimiter applies a per-client-IP token bucket to login attempts.
//
// Login happens before authentication, so the only stable client key
// available is the remote IP (chi's RealIP middleware has already unwrapped
// any proxy headers by the time this runs). A background goroutine reaps
// entries for IPs that haven't been seen for IdleTTL, so the map doesn't
// grow without bound.
type LoginLimiter struct {
	config LoginLimiterConfig

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopCh chan struct{}
}

// NewLoginLimiter creates a LoginLimiter and starts its cleanup goroutine.
// Call Stop on shutdown.
func NewLoginLimiter(config LoginLimiterConfig) *LoginLimiter {
	rl := &LoginLimiter{
		config:   config,
		limiters: make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *LoginLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware rejects requests that exceed the per-IP budget with 429.
func (rl *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"too many login attempts, try again later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *LoginLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, ok := rl.limiters[ip]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rl.config.Rate, rl.config.Burst),
		}
		rl.limiters[ip] = cl
	}
	cl.lastAccess = time.Now()

	return cl.limiter.Allow()
}

func (rl *LoginLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *LoginLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.config.IdleTTL)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, cl := range rl.limiters {
		if cl.lastAccess.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// clientIP extracts the host part of RemoteAddr. RealIP middleware has
// already rewritten RemoteAddr from X-Forwarded-For where applicable.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
