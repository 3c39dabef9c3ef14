package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/audit"
	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/middleware"
	"github.com/reelway/media-server-go/internal/service"
)

type PlaybackHandler struct {
	playbackService *service.PlaybackService
}

func NewPlaybackHandler(playbackService *service.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{playbackService: playbackService}
}

// GET /v1/videos/{videoID}/playback-url
func (h *PlaybackHandler) CreatePlaybackURL(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	if uuid.Validate(videoID) != nil {
		writeError(w, apperrors.InvalidInput("videoID", "must be a UUID"))
		return
	}

	userID := middleware.GetUserID(r.Context())

	result, err := h.playbackService.CreatePlaybackURL(r.Context(), videoID, userID)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeSubscriptionRequired {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventPlaybackDenied,
				UserID:  derefOrEmpty(userID),
				Details: map[string]interface{}{"videoId": videoID},
			})
		} else {
			log.Error().Err(err).Str("videoId", videoID).Msg("failed to issue playback url")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"playback_url": result.PlaybackURL,
		"expires_at":   formatTime(result.ExpiresAt),
	})
}

// GET /play/{playbackID}?exp=&sig=[&u=]
//
// The denial path deliberately carries no detail: a tampered signature, a
// stale expiry, and an unknown playback id all look identical to the caller.
func (h *PlaybackHandler) Play(w http.ResponseWriter, r *http.Request) {
	playbackID := chi.URLParam(r, "playbackID")
	query := r.URL.Query()

	expiry, err := strconv.ParseInt(query.Get("exp"), 10, 64)
	if err != nil {
		h.deny(w, r, playbackID)
		return
	}

	origin, err := h.playbackService.Redeem(playbackID, expiry, query.Get("sig"), query.Get("u"))
	if err != nil {
		h.deny(w, r, playbackID)
		return
	}

	http.Redirect(w, r, origin, http.StatusFound)
}

func (h *PlaybackHandler) deny(w http.ResponseWriter, r *http.Request, playbackID string) {
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventInvalidSignature,
		Details: map[string]interface{}{"playbackId": playbackID},
	})
	writeError(w, apperrors.InvalidSignature())
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
