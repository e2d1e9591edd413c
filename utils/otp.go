package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of verification codes sent over SMS.
const OTPDigits = 6

// GenerateOTP returns a zero-padded numeric code of the given length using
// crypto/rand. Length is clamped to a sane minimum of 4 digits.
func GenerateOTP(digits int) (string, error) {
	if digits < 4 {
		digits = 4
	}

	max := big.NewInt(1)
	for i := 0; i < digits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
