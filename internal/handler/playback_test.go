package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/service"
	"github.com/reelway/media-server-go/internal/signer"
)

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Video), args.Error(1)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) FindActiveByUserID(ctx context.Context, userID string) (*model.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

const testVideoID = "7f39a8c2-1b4e-4d6a-9f0c-2e5b8d7a1c3f"

func newPlaybackFixture() (*PlaybackHandler, *mockVideoRepo, *mockSubscriptionRepo) {
	videoRepo := new(mockVideoRepo)
	subscriptionRepo := new(mockSubscriptionRepo)
	svc := service.NewPlaybackService(
		videoRepo,
		service.NewEntitlementService(subscriptionRepo),
		signer.New("test-playback-signing-key-test-key"),
		"https://media.example.com",
		time.Hour,
	)
	return NewPlaybackHandler(svc), videoRepo, subscriptionRepo
}

func playbackURLRequest(videoID string, user *model.User) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/videos/"+videoID+"/playback-url", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("videoID", videoID)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	if user != nil {
		req = withUser(req, user)
	}
	return req
}

func playRequest(playbackID, rawQuery string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/play/"+playbackID+"?"+rawQuery, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("playbackID", playbackID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreatePlaybackURLHandler(t *testing.T) {
	t.Run("issues a signed url for a free video", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()

		videoRepo.On("FindByID", mock.Anything, testVideoID).Return(&model.Video{
			ID: testVideoID, PlaybackID: "pb_1", Premium: false,
		}, nil)

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest(testVideoID, nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		playbackURL := body["playback_url"].(string)
		parsed, err := url.Parse(playbackURL)
		require.NoError(t, err)
		assert.Equal(t, "/play/pb_1", parsed.Path)
		assert.NotEmpty(t, parsed.Query().Get("exp"))
		assert.NotEmpty(t, parsed.Query().Get("sig"))
	})

	t.Run("rejects a non-uuid video id", func(t *testing.T) {
		h, _, _ := newPlaybackFixture()

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest("not-a-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps a missing video to 404", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()

		videoRepo.On("FindByID", mock.Anything, testVideoID).Return(nil, nil)

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest(testVideoID, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("requires a subscription for premium videos", func(t *testing.T) {
		h, videoRepo, subscriptionRepo := newPlaybackFixture()

		videoRepo.On("FindByID", mock.Anything, testVideoID).Return(&model.Video{
			ID: testVideoID, PlaybackID: "pb_1", Premium: true,
		}, nil)
		subscriptionRepo.On("FindActiveByUserID", mock.Anything, "user_1").Return(nil, nil)

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest(testVideoID, &model.User{ID: "user_1"}))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("denies anonymous access to premium videos", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()

		videoRepo.On("FindByID", mock.Anything, testVideoID).Return(&model.Video{
			ID: testVideoID, PlaybackID: "pb_1", Premium: true,
		}, nil)

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest(testVideoID, nil))

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})
}

func TestPlayHandler(t *testing.T) {
	issue := func(t *testing.T, h *PlaybackHandler, videoRepo *mockVideoRepo) *url.URL {
		t.Helper()
		videoRepo.On("FindByID", mock.Anything, testVideoID).Return(&model.Video{
			ID: testVideoID, PlaybackID: "pb_1", Premium: false,
		}, nil)

		rec := httptest.NewRecorder()
		h.CreatePlaybackURL(rec, playbackURLRequest(testVideoID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		parsed, err := url.Parse(decodeBody(t, rec)["playback_url"].(string))
		require.NoError(t, err)
		return parsed
	}

	t.Run("redirects a valid token to the origin", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()
		signed := issue(t, h, videoRepo)

		rec := httptest.NewRecorder()
		h.Play(rec, playRequest("pb_1", signed.RawQuery))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://media.example.com/pb_1/index.m3u8", rec.Header().Get("Location"))
	})

	t.Run("denies a tampered signature", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()
		signed := issue(t, h, videoRepo)

		query := signed.Query()
		query.Set("sig", "deadbeef"+query.Get("sig")[8:])

		rec := httptest.NewRecorder()
		h.Play(rec, playRequest("pb_1", query.Encode()))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "Invalid or expired token", body["error"])
	})

	t.Run("denies a swapped playback id", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()
		signed := issue(t, h, videoRepo)

		rec := httptest.NewRecorder()
		h.Play(rec, playRequest("pb_other", signed.RawQuery))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("denies an expired token", func(t *testing.T) {
		h, videoRepo, _ := newPlaybackFixture()
		signed := issue(t, h, videoRepo)

		query := signed.Query()
		query.Set("exp", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))

		rec := httptest.NewRecorder()
		h.Play(rec, playRequest("pb_1", query.Encode()))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("denies a malformed expiry", func(t *testing.T) {
		h, _, _ := newPlaybackFixture()

		rec := httptest.NewRecorder()
		h.Play(rec, playRequest("pb_1", "exp=soon&sig=abc"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
