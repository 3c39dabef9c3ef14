package signer

import (
	"fmt"
	"time"

	"github.com/reelway/media-server-go/internal/errors"
	"github.com/reelway/media-server-go/internal/util"
)

// Signer mints and verifies time-bounded playback tokens. The same HMAC key
// covers every stream, so the hot playback path needs no database lookup;
// a compromised key is handled by rotation, not revocation.
type Signer struct {
	key string
}

// New creates a Signer around the process-wide signing key. The key is
// injected here once and never derived per request.
func New(key string) *Signer {
	return &Signer{key: key}
}

// Token is the logical playback token. It is never persisted; it is
// reconstructed from URL query parameters and re-verified on every fetch.
type Token struct {
	Expiry    int64  `json:"expiry"`
	Signature string `json:"signature"`
}

// canonical builds the signed payload. The userID segment is empty for
// anonymous grants; for user-bound grants it ties the token to one account.
func canonical(playbackID string, expiry int64, userID string) string {
	return fmt.Sprintf("%s|%d|%s", playbackID, expiry, userID)
}

// Sign computes a token for playbackID valid for ttl from now.
func (s *Signer) Sign(playbackID string, ttl time.Duration, userID string) Token {
	expiry := time.Now().Add(ttl).Unix()
	return Token{
		Expiry:    expiry,
		Signature: util.HmacSHA256(s.key, canonical(playbackID, expiry, userID)),
	}
}

// Verify recomputes the expected signature and checks the expiry. It fails
// closed and returns a single generic error for every failure mode so
// callers cannot distinguish a tampered signature from an expired token.
func (s *Signer) Verify(playbackID string, expiry int64, signature, userID string) error {
	expected := util.HmacSHA256(s.key, canonical(playbackID, expiry, userID))

	// Compare before the expiry check so both paths do the same work.
	if !util.ConstantTimeEqual(expected, signature) {
		return errors.InvalidSignature()
	}
	if time.Now().Unix() > expiry {
		return errors.InvalidSignature()
	}
	return nil
}
