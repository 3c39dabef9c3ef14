package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/reelway/media-server-go/internal/config"
	"github.com/reelway/media-server-go/internal/httputil"
)

const (
	activateMaxAttempts    = config.ActivateAttemptLimitMin
	activateWindowDuration = time.Minute
	activateCleanupPeriod  = 5 * time.Minute
)

type activateAttempt struct {
	count       int
	windowStart time.Time
}

// ActivateRateLimiter caps how fast one address can try user codes. Six
// characters of a 32-char alphabet is a large space, but only if guessing is
// expensive.
type ActivateRateLimiter struct {
	mu          sync.RWMutex
	attempts    map[string]*activateAttempt
	lastCleanup time.Time
}

func NewActivateRateLimiter() *ActivateRateLimiter {
	return &ActivateRateLimiter{
		attempts:    make(map[string]*activateAttempt),
		lastCleanup: time.Now(),
	}
}

func (l *ActivateRateLimiter) cleanup() {
	now := time.Now()
	if now.Sub(l.lastCleanup) < activateCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, attempt := range l.attempts {
		if now.Sub(attempt.windowStart) > activateWindowDuration {
			delete(l.attempts, ip)
		}
	}
}

func (l *ActivateRateLimiter) isAllowed(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanup()

	now := time.Now()
	attempt, exists := l.attempts[ip]

	if !exists {
		l.attempts[ip] = &activateAttempt{
			count:       1,
			windowStart: now,
		}
		return true
	}

	if now.Sub(attempt.windowStart) > activateWindowDuration {
		attempt.count = 1
		attempt.windowStart = now
		return true
	}

	if attempt.count >= activateMaxAttempts {
		return false
	}

	attempt.count++
	return true
}

func (l *ActivateRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			ip = forwarded
		}

		if !l.isAllowed(ip) {
			w.Header().Set("Retry-After", "60")
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Too many activation attempts. Please try again later.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
