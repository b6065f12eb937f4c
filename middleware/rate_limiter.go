// middleware/rate_limiter.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter is a per-IP token bucket with stricter buckets on the credential
// endpoints. An IP that drains its bucket is blocked for blockDuration.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
	}

	// Login and reset are brute-force targets
	limiter.SetEndpointLimit("/api/auth/login", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/auth/reset-password", rate.Every(2*time.Second), 5)
	limiter.SetEndpointLimit("/api/auth/forgot-password", rate.Every(10*time.Second), 3)
	limiter.SetEndpointLimit("/api/auth/register", rate.Every(500*time.Millisecond), 5)

	return limiter
}

// SetEndpointLimit overrides the bucket for a route path as registered with Echo
func (r *RateLimiter) SetEndpointLimit(path string, limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpointLimits[path] = endpointLimit{limit: limit, burst: burst}
}

// StartCleanup drops expired blocks every interval until ctx is done
func (r *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.cleanupBlockedIPs(now)
			}
		}
	}()
}

func (r *RateLimiter) cleanupBlockedIPs(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			r.resetIP(ip)
		}
	}
}

// resetIP forgets every bucket of ip. Callers hold r.mu.
func (r *RateLimiter) resetIP(ip string) {
	for key := range r.ips {
		if key == ip || strings.HasPrefix(key, ip+"|") {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			// Static poster files are not rate limited
			if strings.HasPrefix(c.Request().URL.Path, "/uploads/") {
				return next(c)
			}

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"message":    "IP address blocked due to too many requests",
						"retryAfter": blockUntil.Format(time.RFC3339),
					})
				}
				delete(r.blockedIPs, ip)
				r.resetIP(ip)
			}
			r.mu.Unlock()

			// Buckets are per IP and per endpoint class so logins do not drain browsing
			path := c.Path()
			limit := r.defaultLimit
			burst := r.defaultBurst
			key := ip

			r.mu.RLock()
			if el, exists := r.endpointLimits[path]; exists {
				limit = el.limit
				burst = el.burst
				key = ip + "|" + path
			}
			r.mu.RUnlock()

			limiter := r.getLimiter(key, limit, burst)
			if !limiter.Allow() {
				retryAfter := time.Now().Add(r.blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = retryAfter
				r.mu.Unlock()

				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message":    "Too many requests",
					"retryAfter": retryAfter.Format(time.RFC3339),
				})
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}
