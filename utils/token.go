package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// NewURLToken returns a random URL-safe token built from n random bytes
func NewURLToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
