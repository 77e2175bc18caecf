package utils

import (
	"crypto/rand"
	"encoding/base64"
)

const stateTokenBytes = 32

func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	// Note that err == nil only if we read len(b) bytes.
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateStateToken returns 256 random bits, base64url encoded without
// padding.
func GenerateStateToken() (string, error) {
	return GenerateRandomKey(stateTokenBytes)
}
