package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// NormalizeAnswer folds case and trims whitespace so hashing and comparison
// always see the same canonical form of a secret answer.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func HashSecretAnswer(answer string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(NormalizeAnswer(answer)), bcrypt.DefaultCost)
}

// CompareSecretAnswer returns nil when the normalized answer matches the hash.
func CompareSecretAnswer(hashed string, answer string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(NormalizeAnswer(answer)))
}
