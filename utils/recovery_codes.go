package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

const (
	RecoveryCodeLength = 8
	NumRecoveryCodes   = 10
	ResetTokenBytes    = 32
)

// RandomHex returns n random bytes hex encoded.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	return hex.EncodeToString(buf), nil
}

// HashString is the one-way digest used for reset tokens and recovery codes.
// Both are high-entropy, so an unsalted sha256 is enough to keep the raw
// values out of the database.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// GenerateRecoveryCodes returns NumRecoveryCodes codes shaped XXXX-XXXX.
func GenerateRecoveryCodes() ([]string, error) {
	codes := make([]string, NumRecoveryCodes)
	for i := range codes {
		raw, err := RandomHex(RecoveryCodeLength / 2)
		if err != nil {
			return nil, err
		}
		code := strings.ToUpper(raw)
		codes[i] = code[:4] + "-" + code[4:]
	}
	return codes, nil
}

// NormalizeRecoveryCode accepts user input with or without the hyphen and in
// any case.
func NormalizeRecoveryCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "-", "")
	if len(code) != RecoveryCodeLength {
		return code
	}
	return code[:4] + "-" + code[4:]
}

func HashRecoveryCodes(codes []string) []string {
	hashed := make([]string, len(codes))
	for i, code := range codes {
		hashed[i] = HashString(NormalizeRecoveryCode(code))
	}
	return hashed
}
