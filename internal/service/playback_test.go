package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/model"
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

func newTestPlaybackService(videoRepo *mockVideoRepo, subRepo *mockSubscriptionRepo) *PlaybackService {
	return NewPlaybackService(
		videoRepo,
		NewEntitlementService(subRepo),
		signer.New("0123456789abcdef0123456789abcdef"),
		"https://media.example.com/",
		time.Hour,
	)
}

func parsePlaybackURL(t *testing.T, raw string) (playbackID string, exp int64, sig, uid string) {
	t.Helper()
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	playbackID = strings.TrimPrefix(parsed.Path, "/play/")
	exp, err = strconv.ParseInt(parsed.Query().Get("exp"), 10, 64)
	require.NoError(t, err)
	return playbackID, exp, parsed.Query().Get("sig"), parsed.Query().Get("u")
}

func TestCreatePlaybackURL(t *testing.T) {
	ctx := context.Background()
	userID := "user_1"

	t.Run("returns NotFound for unknown video", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		svc := newTestPlaybackService(videoRepo, new(mockSubscriptionRepo))

		videoRepo.On("FindByID", ctx, "missing").Return(nil, nil)

		_, err := svc.CreatePlaybackURL(ctx, "missing", nil)
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("issues a redeemable URL for a free video", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		svc := newTestPlaybackService(videoRepo, new(mockSubscriptionRepo))

		videoRepo.On("FindByID", ctx, "video_1").Return(&model.Video{
			ID: "video_1", PlaybackID: "pb_1", Premium: false,
		}, nil)

		result, err := svc.CreatePlaybackURL(ctx, "video_1", nil)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result.PlaybackURL, "/play/pb_1?"))
		assert.True(t, result.ExpiresAt.After(time.Now()))

		playbackID, exp, sig, uid := parsePlaybackURL(t, result.PlaybackURL)
		origin, err := svc.Redeem(playbackID, exp, sig, uid)
		require.NoError(t, err)
		assert.Equal(t, "https://media.example.com/pb_1/index.m3u8", origin)
	})

	t.Run("binds premium grants to the subscriber", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		subRepo := new(mockSubscriptionRepo)
		svc := newTestPlaybackService(videoRepo, subRepo)

		videoRepo.On("FindByID", ctx, "video_2").Return(&model.Video{
			ID: "video_2", PlaybackID: "pb_2", Premium: true,
		}, nil)
		subRepo.On("FindActiveByUserID", ctx, "user_1").Return(&model.Subscription{
			ID: "sub_1", UserID: "user_1", Status: model.SubscriptionStatusActive,
		}, nil)

		result, err := svc.CreatePlaybackURL(ctx, "video_2", &userID)
		require.NoError(t, err)

		playbackID, exp, sig, uid := parsePlaybackURL(t, result.PlaybackURL)
		assert.Equal(t, "user_1", uid)

		// Redeeming as a different user fails.
		_, err = svc.Redeem(playbackID, exp, sig, "user_2")
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))

		_, err = svc.Redeem(playbackID, exp, sig, uid)
		assert.NoError(t, err)
	})

	t.Run("propagates the entitlement failure", func(t *testing.T) {
		videoRepo := new(mockVideoRepo)
		subRepo := new(mockSubscriptionRepo)
		svc := newTestPlaybackService(videoRepo, subRepo)

		videoRepo.On("FindByID", ctx, "video_2").Return(&model.Video{
			ID: "video_2", PlaybackID: "pb_2", Premium: true,
		}, nil)
		subRepo.On("FindActiveByUserID", ctx, "user_1").Return(nil, nil)

		_, err := svc.CreatePlaybackURL(ctx, "video_2", &userID)
		assert.Equal(t, apperrors.ErrCodeSubscriptionRequired, apperrors.GetCode(err))
	})
}

func TestRedeem(t *testing.T) {
	svc := newTestPlaybackService(new(mockVideoRepo), new(mockSubscriptionRepo))
	sgn := signer.New("0123456789abcdef0123456789abcdef")

	t.Run("rejects a tampered playback id", func(t *testing.T) {
		token := sgn.Sign("pb_1", time.Hour, "")
		_, err := svc.Redeem("pb_2", token.Expiry, token.Signature, "")
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token := sgn.Sign("pb_1", -time.Minute, "")
		_, err := svc.Redeem("pb_1", token.Expiry, token.Signature, "")
		assert.Equal(t, apperrors.ErrCodeInvalidSignature, apperrors.GetCode(err))
	})
}
