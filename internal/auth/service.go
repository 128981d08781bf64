package auth

import (
	"context"
	"errors"
	"time"

	"github.com/webtrio/webfolio/internal/email"
	"github.com/webtrio/webfolio/internal/krypto"
)

const (
	// DefaultCodeExpiry is the default for ServiceConfig.CodeExpiry.
	DefaultCodeExpiry = 5 * time.Minute

	// DefaultSessionExpiry is the default for ServiceConfig.SessionExpiry.
	DefaultSessionExpiry = 7 * 24 * time.Hour
)

// loginCodeTemplate is the email template used to deliver codes.
const loginCodeTemplate = "login-code"

// Emailer is used to send templated emails.
type Emailer interface {
	Send(ctx context.Context, template string, to email.Address, data any) error
}

// ServiceConfig is the configuration for the Service.
// Zero durations fall back to the defaults.
type ServiceConfig struct {
	// CodeExpiry is the duration a login code is valid.
	CodeExpiry time.Duration
	// SessionExpiry is the duration a session is valid.
	SessionExpiry time.Duration
}

// LoginCodeData is the template data for the login code email.
type LoginCodeData struct {
	Code   Code
	Expiry time.Duration
}

// IssuedSession is handed to the caller after a successful code
// redemption. The token is the bearer credential to store in the
// session cookie.
type IssuedSession struct {
	Token     krypto.Token
	ExpiresAt time.Time
}

// Service provides the main rules for authentication: it orchestrates
// requesting codes, redeeming them and the session lifecycle.
//
// The service itself is stateless, all state lives in the injected
// stores. It's safe to use concurrently from multiple goroutines.
type Service struct {
	codes     CodeStore
	sessions  SessionStore
	emailer   Emailer
	allowList AllowList
	cfg       ServiceConfig

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(codes CodeStore, sessions SessionStore, emailer Emailer, allowList AllowList, cfg ServiceConfig) *Service {
	if cfg.CodeExpiry == 0 {
		cfg.CodeExpiry = DefaultCodeExpiry
	}
	if cfg.SessionExpiry == 0 {
		cfg.SessionExpiry = DefaultSessionExpiry
	}

	return &Service{
		codes:     codes,
		sessions:  sessions,
		emailer:   emailer,
		allowList: allowList,
		cfg:       cfg,
		NowFunc:   time.Now,
	}
}

// RequestCode generates a login code for the address, stores it and
// emails it to the address. It fails with ErrNotAllowed before any code
// is generated if the address is not on the allow list, and with a
// DeliveryError if the email could not be sent.
//
// The code is never part of any return value, it only travels out of
// band via the emailer.
func (s *Service) RequestCode(ctx context.Context, addr email.Address) error {
	addr = addr.Normalize()

	if !s.allowList.Contains(addr) {
		return ErrNotAllowed
	}

	code, err := GenerateCode()
	if err != nil {
		return err
	}

	hash, err := krypto.HashArgon2([]byte(code))
	if err != nil {
		return err
	}

	now := s.NowFunc()
	err = s.codes.Issue(ctx, OneTimeCode{
		Recipient: addr,
		CodeHash:  hash,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.CodeExpiry),
	})
	if err != nil {
		return err
	}

	err = s.emailer.Send(ctx, loginCodeTemplate, addr, LoginCodeData{
		Code:   code,
		Expiry: s.cfg.CodeExpiry,
	})
	if err != nil {
		// A stored but undelivered code must not stay redeemable,
		// discard it before reporting the failure.
		if dErr := s.codes.Discard(ctx, addr); dErr != nil {
			err = errors.Join(err, dErr)
		}
		return &DeliveryError{Cause: err}
	}

	return nil
}

// RedeemCode exchanges a valid (address, code) pair for a new session.
// Missing inputs, unknown, expired and already consumed codes all fail
// with the same ErrInvalidCode.
func (s *Service) RedeemCode(ctx context.Context, addr email.Address, code Code) (IssuedSession, error) {
	if addr == "" || code == "" {
		return IssuedSession{}, ErrInvalidCode
	}

	addr = addr.Normalize()

	err := s.codes.Consume(ctx, addr, code, s.NowFunc())
	if err != nil {
		return IssuedSession{}, err
	}

	token, err := krypto.GenerateToken()
	if err != nil {
		return IssuedSession{}, err
	}

	now := s.NowFunc()
	sess := Session{
		TokenDigest: DigestToken(token),
		Identity:    addr,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.SessionExpiry),
	}

	err = s.sessions.Create(ctx, sess)
	if err != nil {
		return IssuedSession{}, err
	}

	return IssuedSession{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
	}, nil
}

// CheckSession resolves a token to the authenticated identity.
// It fails with ErrNoSession for unknown, revoked and expired tokens.
// Expiry is checked here as well, independently of any storage level
// expiry sweep.
func (s *Service) CheckSession(ctx context.Context, token krypto.Token) (email.Address, error) {
	sess, err := s.sessions.Resolve(ctx, DigestToken(token))
	if err != nil {
		return "", err
	}

	if !s.NowFunc().Before(sess.ExpiresAt) {
		return "", ErrNoSession
	}

	return sess.Identity, nil
}

// Logout revokes the session for the token. Logging out with a token
// that doesn't resolve to a session is not an error.
func (s *Service) Logout(ctx context.Context, token krypto.Token) error {
	return s.sessions.Revoke(ctx, DigestToken(token))
}
