package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/audit"
	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/middleware"
	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/service"
)

type PairingHandler struct {
	pairingService *service.PairingService
}

func NewPairingHandler(pairingService *service.PairingService) *PairingHandler {
	return &PairingHandler{pairingService: pairingService}
}

type requestPairBody struct {
	DeviceType *string `json:"device_type"`
}

type activateBody struct {
	UserCode string `json:"user_code"`
}

type pollBody struct {
	DeviceCode string `json:"device_code"`
}

// POST /v1/pair
func (h *PairingHandler) RequestPair(w http.ResponseWriter, r *http.Request) {
	var body requestPairBody
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
			return
		}
	}

	result, err := h.pairingService.RequestPair(r.Context(), body.DeviceType)
	if err != nil {
		log.Error().Err(err).Msg("failed to create pairing")
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPairRequested})

	writeJSON(w, http.StatusCreated, map[string]any{
		"device_code":           result.DeviceCode,
		"user_code":             result.UserCode,
		"expires_at":            formatTime(result.ExpiresAt),
		"poll_interval_seconds": result.PollIntervalSeconds,
	})
}

// POST /v1/pair/activate
func (h *PairingHandler) Activate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("Sign in to link a device"))
		return
	}

	var body activateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if body.UserCode == "" {
		writeError(w, apperrors.MissingRequired("user_code"))
		return
	}

	if err := h.pairingService.Activate(r.Context(), body.UserCode, user.ID); err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:   audit.EventActivateFailure,
			UserID: user.ID,
			Details: map[string]interface{}{
				"code": string(apperrors.GetCode(err)),
			},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventPairActivated, UserID: user.ID})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// POST /v1/pair/poll
func (h *PairingHandler) Poll(w http.ResponseWriter, r *http.Request) {
	var body pollBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}
	if body.DeviceCode == "" {
		writeError(w, apperrors.MissingRequired("device_code"))
		return
	}

	result, err := h.pairingService.Poll(r.Context(), body.DeviceCode)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Status != model.PairingStatusLinked {
		writeJSON(w, http.StatusOK, map[string]any{"status": result.Status})
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:   audit.EventPairConsumed,
		UserID: result.User.ID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        result.Status,
		"session_token": result.SessionToken,
		"user":          formatUser(result.User),
	})
}
