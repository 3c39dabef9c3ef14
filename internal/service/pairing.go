package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/reelway/media-server-go/internal/config"
	apperrors "github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/model"
	"github.com/reelway/media-server-go/internal/repository"
	"github.com/reelway/media-server-go/internal/util"
)

// userCodeChars excludes visually confusable characters (0/O, 1/I) so the
// code survives being read off a TV screen and typed on a phone.
const (
	userCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	userCodeLength = 6
)

type PairResult struct {
	DeviceCode          string    `json:"device_code"`
	UserCode            string    `json:"user_code"`
	ExpiresAt           time.Time `json:"expires_at"`
	PollIntervalSeconds int       `json:"poll_interval_seconds"`
}

type PollResult struct {
	Status       model.PairingStatus
	SessionToken string
	User         *model.User
}

type PairingService struct {
	pairingRepo repository.DevicePairingRepository
	userRepo    repository.UserRepository
	sessions    *SessionService
}

func NewPairingService(
	pairingRepo repository.DevicePairingRepository,
	userRepo repository.UserRepository,
	sessions *SessionService,
) *PairingService {
	return &PairingService{
		pairingRepo: pairingRepo,
		userRepo:    userRepo,
		sessions:    sessions,
	}
}

// RequestPair issues a fresh device/user code pair with a 10-minute window.
// The device code is stored hashed; the raw value goes back to the caller
// exactly once. Code collisions are regenerated, never silently swallowed.
func (s *PairingService) RequestPair(ctx context.Context, deviceType *string) (*PairResult, error) {
	expiresAt := time.Now().Add(config.PairingCodeTTL)

	for attempt := 0; attempt < config.PairingMaxAttempts; attempt++ {
		deviceCode, err := util.GenerateToken()
		if err != nil {
			return nil, fmt.Errorf("generate device code: %w", err)
		}
		userCode := generateUserCode()

		pairing, err := s.pairingRepo.Create(ctx, model.CreateDevicePairingParams{
			ID:             ulid.Make().String(),
			DeviceCodeHash: util.HashToken(deviceCode),
			UserCode:       userCode,
			DeviceType:     deviceType,
			ExpiresAt:      expiresAt,
		})
		if err == repository.ErrDuplicateCode {
			log.Warn().Int("attempt", attempt+1).Msg("pairing code collision, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create pairing: %w", err)
		}

		log.Info().
			Str("pairingId", pairing.ID).
			Str("userCode", util.MaskCode(userCode)).
			Time("expiresAt", expiresAt).
			Msg("pairing requested")

		return &PairResult{
			DeviceCode:          deviceCode,
			UserCode:            userCode,
			ExpiresAt:           pairing.ExpiresAt,
			PollIntervalSeconds: int(config.PairingPollInterval.Seconds()),
		}, nil
	}

	return nil, apperrors.Internal("Could not allocate a pairing code")
}

// Activate binds the authenticated user to the pending pairing identified by
// userCode. A code that is already linked is rejected, never rebound.
func (s *PairingService) Activate(ctx context.Context, userCode, userID string) error {
	normalized := normalizeUserCode(userCode)
	if len(normalized) != userCodeLength {
		return apperrors.InvalidInput("user_code", "must be 6 characters")
	}

	pairing, err := s.pairingRepo.FindActiveByUserCode(ctx, normalized)
	if err != nil {
		return fmt.Errorf("find pairing by user code: %w", err)
	}
	if pairing == nil {
		return apperrors.NotFound("Pairing code")
	}
	if pairing.Status == model.PairingStatusLinked {
		return apperrors.AlreadyLinked()
	}

	affected, err := s.pairingRepo.Link(ctx, pairing.ID, userID)
	if err != nil {
		return fmt.Errorf("link pairing: %w", err)
	}
	if affected == 0 {
		// Lost a race with another activation or with expiry.
		return apperrors.AlreadyLinked()
	}

	log.Info().
		Str("pairingId", pairing.ID).
		Str("userId", userID).
		Str("userCode", util.MaskCode(normalized)).
		Msg("pairing activated")

	return nil
}

// Poll reports pairing progress to the device. A linked record is consumed
// here exactly once: the conditional update decides the winner when pollers
// race, and the loser sees an expired pairing instead of a second session.
func (s *PairingService) Poll(ctx context.Context, deviceCode string) (*PollResult, error) {
	pairing, err := s.pairingRepo.FindByDeviceCodeHash(ctx, util.HashToken(deviceCode))
	if err != nil {
		return nil, fmt.Errorf("find pairing by device code: %w", err)
	}
	if pairing == nil {
		return nil, apperrors.NotFound("Pairing")
	}

	if pairing.Status == model.PairingStatusExpired || pairing.Expired(time.Now()) {
		return &PollResult{Status: model.PairingStatusExpired}, nil
	}

	if pairing.Status == model.PairingStatusPending {
		return &PollResult{Status: model.PairingStatusPending}, nil
	}

	if pairing.UserID == nil {
		return nil, apperrors.Internal("Linked pairing has no user")
	}

	affected, err := s.pairingRepo.Consume(ctx, pairing.ID)
	if err != nil {
		return nil, fmt.Errorf("consume pairing: %w", err)
	}
	if affected == 0 {
		return &PollResult{Status: model.PairingStatusExpired}, nil
	}

	user, err := s.userRepo.FindByID(ctx, *pairing.UserID)
	if err != nil {
		return nil, fmt.Errorf("find paired user: %w", err)
	}
	if user == nil {
		return nil, apperrors.Internal("Paired user no longer exists")
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	log.Info().
		Str("pairingId", pairing.ID).
		Str("userId", user.ID).
		Msg("pairing consumed, session issued")

	return &PollResult{
		Status:       model.PairingStatusLinked,
		SessionToken: token,
		User:         user,
	}, nil
}

func normalizeUserCode(code string) string {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	normalized = strings.ReplaceAll(normalized, "-", "")
	return strings.ReplaceAll(normalized, " ", "")
}

func generateUserCode() string {
	chars := []byte(userCodeChars)
	code := make([]byte, userCodeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		code[i] = chars[n.Int64()]
	}
	return string(code)
}
