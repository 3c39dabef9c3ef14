package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventPairRequested    EventType = "pair_requested"
	EventPairActivated    EventType = "pair_activated"
	EventPairConsumed     EventType = "pair_consumed"
	EventActivateFailure  EventType = "activate_failure"
	EventSessionIssued    EventType = "session_issued"
	EventPlaybackDenied   EventType = "playback_denied"
	EventInvalidSignature EventType = "invalid_signature"
	EventRateLimitExceed  EventType = "rate_limit_exceeded"
)

type Event struct {
	Type      EventType
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "security").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.UserID != "" {
		logger = logger.With().Str("user_id", event.UserID).Logger()
	}
	if event.IP != "" {
		logger = logger.With().Str("ip", event.IP).Logger()
	}
	if event.UserAgent != "" {
		logger = logger.With().Str("user_agent", event.UserAgent).Logger()
	}

	logger.Info().Fields(event.Details).Msg("security audit event")
}

func LogFromRequest(r *http.Request, event Event) {
	event.IP = getClientIP(r)
	event.UserAgent = r.UserAgent()
	Log(r.Context(), event)
}

func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
