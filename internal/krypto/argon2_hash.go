package krypto

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidInput indicates a value could not be hashed or parsed.
var ErrInvalidInput = errors.New("invalid input")

// Parameters for newly created hashes. Existing hashes embed their own
// parameters and keep matching if these change.
const (
	argon2Variant     = "argon2id"
	argon2MemoryKiB   = 47104
	argon2Iterations  = 1
	argon2Parallelism = 1
	argon2SaltLen     = 16
	argon2HashLen     = 32
)

// Argon2Hash is an argon2id hash and the parameters used to create it.
//
// The textual representation follows the reference implementation:
//
//	$argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
//
// with salt and hash encoded as unpadded standard base64.
type Argon2Hash struct {
	Variant     string
	Version     int
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// HashArgon2 hashes the provided bytes using argon2id and a random salt.
func HashArgon2(raw []byte) (Argon2Hash, error) {
	if len(raw) == 0 {
		return Argon2Hash{}, fmt.Errorf("%w: empty value", ErrInvalidInput)
	}

	salt, err := genRandomBytes(argon2SaltLen)
	if err != nil {
		return Argon2Hash{}, err
	}

	h := Argon2Hash{
		Variant:     argon2Variant,
		Version:     argon2.Version,
		MemoryKiB:   argon2MemoryKiB,
		Iterations:  argon2Iterations,
		Parallelism: argon2Parallelism,
		Salt:        salt,
	}

	h.Hash = argon2.IDKey(raw, salt, h.Iterations, h.MemoryKiB, h.Parallelism, argon2HashLen)

	return h, nil
}

// ParseArgon2Hash parses the textual representation of an argon2id hash.
func ParseArgon2Hash(raw string) (Argon2Hash, error) {
	parts := strings.Split(raw, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Hash{}, fmt.Errorf("%w: wrong number of segments", ErrInvalidInput)
	}

	h := Argon2Hash{
		Variant: parts[1],
	}

	if h.Variant != argon2Variant {
		return Argon2Hash{}, fmt.Errorf("%w: unsupported variant %q", ErrInvalidInput, h.Variant)
	}

	if _, err := fmt.Sscanf(parts[2], "v=%d", &h.Version); err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: malformed version", ErrInvalidInput)
	}

	if h.Version != argon2.Version {
		return Argon2Hash{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidInput, h.Version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.MemoryKiB, &h.Iterations, &h.Parallelism); err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: malformed parameters", ErrInvalidInput)
	}

	var err error
	h.Salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: malformed salt", ErrInvalidInput)
	}

	h.Hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: malformed hash", ErrInvalidInput)
	}

	return h, nil
}

// String returns the textual representation of the hash.
func (h Argon2Hash) String() string {
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.Variant,
		h.Version,
		h.MemoryKiB,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Hash),
	)
}

// MatchBytes reports whether raw hashes to h using the parameters
// embedded in h. The comparison is constant-time.
func (h Argon2Hash) MatchBytes(raw []byte) bool {
	other := argon2.IDKey(raw, h.Salt, h.Iterations, h.MemoryKiB, h.Parallelism, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(h.Hash, other) == 1
}

// MarshalText implements encoding.TextMarshaler.
func (h Argon2Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Argon2Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseArgon2Hash(string(text))
	if err != nil {
		return err
	}

	*h = parsed
	return nil
}
