package security

import (
	"crypto/rand"
	"encoding/base64"
)

// NewNonce returns 256 random bits, base64url encoded.
func NewNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
