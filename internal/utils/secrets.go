package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SecretNames are the environment variables holding signing secrets
var SecretNames = []string{"JWT_SECRET", "JWT_REFRESH_SECRET"}

// GenerateSecret returns n random bytes hex encoded
func GenerateSecret(n int) (string, error) {
	if n < 16 {
		return "", fmt.Errorf("secret length must be at least 16 bytes, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSecrets returns a distinct secret of n bytes for every name
func GenerateSecrets(n int, names ...string) (map[string]string, error) {
	secrets := make(map[string]string, len(names))
	for _, name := range names {
		secret, err := GenerateSecret(n)
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s: %w", name, err)
		}
		secrets[name] = secret
	}
	return secrets, nil
}
