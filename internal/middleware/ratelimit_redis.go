package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/config"
	"github.com/reelway/media-server-go/internal/httputil"
	"github.com/reelway/media-server-go/internal/service"
)

const userRateLimitWindow = 60 * time.Second

// UserRateLimitMiddleware throttles authenticated traffic per user. It sits
// on the playback-url issuance route so one account cannot mint signed URLs
// in bulk.
type UserRateLimitMiddleware struct {
	limiter *service.RateLimiter
	limit   int
}

func NewUserRateLimitMiddleware(limiter *service.RateLimiter, limit int) *UserRateLimitMiddleware {
	if limit <= 0 {
		limit = config.DefaultRateLimitPerMin
	}
	return &UserRateLimitMiddleware{limiter: limiter, limit: limit}
}

func (m *UserRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, resetAt := m.limiter.Allow(r.Context(), "user:"+user.ID, m.limit, userRateLimitWindow)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			log.Warn().Str("userId", user.ID).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
