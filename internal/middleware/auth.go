package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/httputil"
	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/repository"
	"github.com/reelway/media-server-go/internal/service"
)

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(ctx context.Context) *model.User {
	if user, ok := ctx.Value(UserContextKey).(*model.User); ok {
		return user
	}
	return nil
}

// GetUserID returns the authenticated user's id, or nil for anonymous
// requests. Entitlement checks take this shape directly.
func GetUserID(ctx context.Context) *string {
	if user := GetUser(ctx); user != nil {
		return &user.ID
	}
	return nil
}

type AuthMiddleware struct {
	sessions *service.SessionService
	userRepo repository.UserRepository
}

func NewAuthMiddleware(sessions *service.SessionService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, userRepo: userRepo}
}

// RequireUser rejects requests without a valid session token.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing session token",
			})
			return
		}

		user, ok := m.resolveUser(w, r, token)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalUser resolves a session when one is presented but lets anonymous
// requests through. A presented-but-invalid token is still rejected.
func (m *AuthMiddleware) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, ok := m.resolveUser(w, r, token)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) resolveUser(w http.ResponseWriter, r *http.Request, token string) (*model.User, bool) {
	userID, err := m.sessions.Verify(token)
	if err != nil {
		log.Warn().Msg("auth middleware: invalid session token attempt")
		httputil.WriteError(w, err)
		return nil, false
	}

	user, err := m.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("auth middleware: database error")
		httputil.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Authentication failed",
		})
		return nil, false
	}

	if user == nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Invalid session",
		})
		return nil, false
	}

	return user, true
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
