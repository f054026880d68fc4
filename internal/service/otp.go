package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// generateOTP devuelve un codigo numerico de 6 digitos uniforme usando crypto/rand.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != otpDigits {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}
