package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/reelway/media-server-go/internal/errors"
)

const sessionIssuer = "reelway"

// SessionService mints the long-lived device credential handed out when a
// pairing is consumed. There is no refresh or rotation: once a session
// expires, the device runs the pairing flow again.
type SessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) *SessionService {
	return &SessionService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *SessionService) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses a session token and returns the user id it is bound to.
func (s *SessionService) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.New(apperrors.ErrCodeTokenExpired, "Session has expired")
		}
		return "", apperrors.InvalidToken("Invalid session token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", apperrors.InvalidToken("Invalid session token")
	}
	return claims.Subject, nil
}
