package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/krypto"
)

var (
	// ErrNotAllowed indicates an email address is not on the allow list.
	ErrNotAllowed = errors.New("email not allowed to authenticate")

	// ErrInvalidCode covers every way a code redemption can fail:
	// wrong code, expired code and already consumed code. Callers must
	// not be able to tell these apart.
	ErrInvalidCode = errors.New("invalid code")

	// ErrNoSession indicates a token does not resolve to a valid session.
	ErrNoSession = errors.New("no valid session")
)

// DeliveryError indicates a login code could not be delivered to the
// recipient. The request-code operation failed as a whole.
type DeliveryError struct {
	Cause error
}

func (e *DeliveryError) Error() string {
	return "failed to deliver login code: " + e.Cause.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// OneTimeCode is the persisted state of an issued login code.
// The code itself is never persisted, only its hash.
type OneTimeCode struct {
	Recipient email.Address
	CodeHash  krypto.Argon2Hash
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Session is the persisted state of an authenticated session.
// The bearer token is never persisted, only its digest.
type Session struct {
	TokenDigest string
	Identity    email.Address
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// CodeStore persists one time codes. Implementations must be safe for
// concurrent use.
type CodeStore interface {
	// Issue persists the code record. Any outstanding codes for the
	// same recipient are replaced, there is at most one authoritative
	// code per recipient.
	Issue(ctx context.Context, code OneTimeCode) error

	// Consume atomically removes the record matching recipient and code
	// if it has not expired at now. It returns ErrInvalidCode when no
	// such record exists. When multiple callers race on the same record,
	// at most one of them may succeed.
	Consume(ctx context.Context, recipient email.Address, code Code, now time.Time) error

	// Discard removes all outstanding codes for the recipient.
	Discard(ctx context.Context, recipient email.Address) error
}

// SessionStore persists sessions keyed by token digest. Implementations
// must be safe for concurrent use.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, sess Session) error

	// Resolve returns the session with the given token digest.
	// It returns ErrNoSession when no such session exists.
	Resolve(ctx context.Context, tokenDigest string) (Session, error)

	// Revoke deletes the session with the given token digest.
	// Revoking a nonexistent session is not an error.
	Revoke(ctx context.Context, tokenDigest string) error
}

// DigestToken returns the hex encoded SHA-256 digest of the token.
// Sessions are stored and looked up by digest so that someone with
// access to the store cannot use the stored values as bearer tokens.
func DigestToken(t krypto.Token) string {
	d := sha256.Sum256(t[:])
	return hex.EncodeToString(d[:])
}
