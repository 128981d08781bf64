package auth_test

import (
	"errors"
	"testing"

	"github.com/webtrio/webfolio/internal/auth"
)

func Test_GenerateCode(t *testing.T) {
	seen := make(map[auth.Code]struct{})

	for i := 0; i < 100; i++ {
		code, err := auth.GenerateCode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(code) != auth.CodeLength {
			t.Fatalf("wanted %d digits, got %q", auth.CodeLength, code)
		}

		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}

		seen[code] = struct{}{}
	}

	// With a million possible codes, 100 draws colliding down to a
	// handful of distinct values means the generator is broken.
	if len(seen) < 90 {
		t.Errorf("expected close to 100 distinct codes, got %d", len(seen))
	}
}

func Test_ParseCode(t *testing.T) {
	okCases := map[string]string{
		"plain":          "482913",
		"leading zeros":  "000042",
		"surrounding ws": " 482913\n",
	}

	for name, raw := range okCases {
		t.Run("ok, "+name, func(t *testing.T) {
			_, err := auth.ParseCode(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}

	failCases := map[string]string{
		"empty":      "",
		"too short":  "12345",
		"too long":   "1234567",
		"letters":    "12a456",
		"negative":   "-12345",
		"inner space": "123 56",
	}

	for name, raw := range failCases {
		t.Run("fail, "+name, func(t *testing.T) {
			_, err := auth.ParseCode(raw)
			if !errors.Is(err, auth.ErrInvalidCode) {
				t.Fatalf("wanted %v got %v (via errors.Is)", auth.ErrInvalidCode, err)
			}
		})
	}
}
