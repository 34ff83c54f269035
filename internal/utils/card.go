package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const accountNoLength = 16

// GenerateAccountNo generates a 16-digit account number.
func GenerateAccountNo() (string, error) {
	return randomDigits(accountNoLength)
}

// GenerateCVV generates a 3-digit CVV code.
func GenerateCVV() (string, error) {
	return randomDigits(3)
}

func randomDigits(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var builder strings.Builder
	for _, b := range raw {
		builder.WriteByte(b%10 + '0')
	}

	digits := builder.String()
	if len(digits) != length {
		return "", fmt.Errorf("generated number has incorrect length: got %d, want %d", len(digits), length)
	}
	return digits, nil
}
