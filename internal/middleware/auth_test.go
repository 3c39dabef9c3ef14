package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/service"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func newAuthFixture(t *testing.T) (*AuthMiddleware, *service.SessionService, *mockUserRepo) {
	t.Helper()
	sessions := service.NewSessionService("test-session-secret-test-session", 30*24*time.Hour)
	userRepo := new(mockUserRepo)
	return NewAuthMiddleware(sessions, userRepo), sessions, userRepo
}

func okHandler(sawUser **model.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*sawUser = GetUser(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireUser(t *testing.T) {
	t.Run("rejects requests without a token", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)
		var sawUser *model.User

		req := httptest.NewRequest(http.MethodPost, "/v1/pair/activate", nil)
		rec := httptest.NewRecorder()
		auth.RequireUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sawUser)
	})

	t.Run("rejects invalid tokens", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)
		var sawUser *model.User

		req := httptest.NewRequest(http.MethodPost, "/v1/pair/activate", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		auth.RequireUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects tokens whose user no longer exists", func(t *testing.T) {
		auth, sessions, userRepo := newAuthFixture(t)
		var sawUser *model.User

		token, err := sessions.Issue("user_gone")
		require.NoError(t, err)
		userRepo.On("FindByID", mock.Anything, "user_gone").Return(nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/pair/activate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		auth.RequireUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("puts the user in the request context", func(t *testing.T) {
		auth, sessions, userRepo := newAuthFixture(t)
		var sawUser *model.User

		token, err := sessions.Issue("user_1")
		require.NoError(t, err)
		userRepo.On("FindByID", mock.Anything, "user_1").Return(&model.User{ID: "user_1"}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/pair/activate", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		auth.RequireUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, sawUser)
		assert.Equal(t, "user_1", sawUser.ID)
	})
}

func TestOptionalUser(t *testing.T) {
	t.Run("lets anonymous requests through", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)
		var sawUser *model.User

		req := httptest.NewRequest(http.MethodGet, "/v1/videos/abc/playback-url", nil)
		rec := httptest.NewRecorder()
		auth.OptionalUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, sawUser)
	})

	t.Run("still rejects a presented invalid token", func(t *testing.T) {
		auth, _, _ := newAuthFixture(t)
		var sawUser *model.User

		req := httptest.NewRequest(http.MethodGet, "/v1/videos/abc/playback-url", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()
		auth.OptionalUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("resolves a valid token", func(t *testing.T) {
		auth, sessions, userRepo := newAuthFixture(t)
		var sawUser *model.User

		token, err := sessions.Issue("user_1")
		require.NoError(t, err)
		userRepo.On("FindByID", mock.Anything, "user_1").Return(&model.User{ID: "user_1"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/videos/abc/playback-url", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		auth.OptionalUser(okHandler(&sawUser)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, sawUser)
		assert.Equal(t, "user_1", sawUser.ID)
	})
}

func TestGetUserID(t *testing.T) {
	t.Run("nil for anonymous context", func(t *testing.T) {
		assert.Nil(t, GetUserID(context.Background()))
	})

	t.Run("returns id for authenticated context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserContextKey, &model.User{ID: "user_1"})
		id := GetUserID(ctx)
		require.NotNil(t, id)
		assert.Equal(t, "user_1", *id)
	})
}
