package auth

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/webtrio/webfolio/internal/krypto"
)

// CodeLength is the number of digits in a login code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Code is a short-lived numeric login code. Codes are confidential,
// the only place a code appears in plaintext is the email to the user.
type Code string

// GenerateCode creates a new random code, uniformly distributed over
// all CodeLength digit strings.
func GenerateCode() (Code, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}

	return Code(fmt.Sprintf("%0*d", CodeLength, n)), nil
}

// ParseCode parses a code provided by a user. It returns ErrInvalidCode
// for anything that is not exactly CodeLength digits.
func ParseCode(raw string) (Code, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != CodeLength {
		return "", ErrInvalidCode
	}

	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return "", ErrInvalidCode
		}
	}

	return Code(trimmed), nil
}

// LogValue implements the slog.Valuer interface.
func (c Code) LogValue() slog.Value {
	return slog.StringValue(krypto.SecretMarker)
}
