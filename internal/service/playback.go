package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/repository"
	"github.com/reelway/media-server-go/internal/signer"
)

type PlaybackURLResult struct {
	PlaybackURL string    `json:"playback_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PlaybackService issues signed playback URLs and redeems them for the
// upstream media origin. Issuance re-checks entitlement every time;
// redemption is signature-only and never touches the database.
type PlaybackService struct {
	videoRepo    repository.VideoRepository
	entitlements *EntitlementService
	signer       *signer.Signer
	originURL    string
	tokenTTL     time.Duration
}

func NewPlaybackService(
	videoRepo repository.VideoRepository,
	entitlements *EntitlementService,
	sgn *signer.Signer,
	originURL string,
	tokenTTL time.Duration,
) *PlaybackService {
	return &PlaybackService{
		videoRepo:    videoRepo,
		entitlements: entitlements,
		signer:       sgn,
		originURL:    strings.TrimSuffix(originURL, "/"),
		tokenTTL:     tokenTTL,
	}
}

// CreatePlaybackURL gates the video behind the entitlement check and returns
// a relative signed URL the client fetches to start playback.
func (s *PlaybackService) CreatePlaybackURL(ctx context.Context, videoID string, userID *string) (*PlaybackURLResult, error) {
	video, err := s.videoRepo.FindByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	if video == nil {
		return nil, apperrors.NotFound("Video")
	}

	if err := s.entitlements.CheckAccess(ctx, video, userID); err != nil {
		return nil, err
	}

	uid := ""
	if userID != nil {
		uid = *userID
	}
	token := s.signer.Sign(video.PlaybackID, s.tokenTTL, uid)

	query := url.Values{}
	query.Set("exp", fmt.Sprintf("%d", token.Expiry))
	query.Set("sig", token.Signature)
	if uid != "" {
		query.Set("u", uid)
	}

	log.Info().
		Str("videoId", video.ID).
		Str("playbackId", video.PlaybackID).
		Bool("premium", video.Premium).
		Msg("playback url issued")

	return &PlaybackURLResult{
		PlaybackURL: fmt.Sprintf("/play/%s?%s", url.PathEscape(video.PlaybackID), query.Encode()),
		ExpiresAt:   time.Unix(token.Expiry, 0),
	}, nil
}

// Redeem verifies a presented token and returns the origin URL to redirect
// to. Every failure mode maps to the same generic denial.
func (s *PlaybackService) Redeem(playbackID string, expiry int64, signature, userID string) (string, error) {
	if err := s.signer.Verify(playbackID, expiry, signature, userID); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/index.m3u8", s.originURL, url.PathEscape(playbackID)), nil
}
