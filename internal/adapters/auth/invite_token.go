package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"collabcalendar/internal/domain"
)

// inviteTokenBytes is 256 bits of entropy.
const inviteTokenBytes = 32

type inviteTokenCodec struct{}

// NewInviteTokenCodec returns the codec used for invite tokens: crypto/rand
// tokens in unpadded URL-safe base64, stored as lowercase hex SHA-256.
func NewInviteTokenCodec() domain.InviteTokenCodec {
	return inviteTokenCodec{}
}

func (inviteTokenCodec) Generate() (string, error) {
	return GenerateInviteToken()
}

func (inviteTokenCodec) Hash(token string) string {
	return HashInviteToken(token)
}

// GenerateInviteToken returns a fresh opaque token safe to embed in a URL.
func GenerateInviteToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashInviteToken returns the deterministic digest stored in place of the token.
func HashInviteToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
