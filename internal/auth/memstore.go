package auth

import (
	"context"
	"sync"
	"time"

	"github.com/webtrio/webfolio/internal/email"
)

// MemoryCodeStore is an in-memory CodeStore. It's used in tests and
// local development, production deployments use the mongodb store.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[email.Address]OneTimeCode
}

func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{
		codes: make(map[email.Address]OneTimeCode),
	}
}

func (s *MemoryCodeStore) Issue(_ context.Context, code OneTimeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[code.Recipient] = code
	return nil
}

func (s *MemoryCodeStore) Consume(_ context.Context, recipient email.Address, code Code, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.codes[recipient]
	if !ok {
		return ErrInvalidCode
	}

	if !now.Before(stored.ExpiresAt) {
		delete(s.codes, recipient)
		return ErrInvalidCode
	}

	if !stored.CodeHash.MatchBytes([]byte(code)) {
		return ErrInvalidCode
	}

	delete(s.codes, recipient)
	return nil
}

func (s *MemoryCodeStore) Discard(_ context.Context, recipient email.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, recipient)
	return nil
}

// MemorySessionStore is an in-memory SessionStore. It's used in tests
// and local development, production deployments use the mongodb store.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]Session),
	}
}

func (s *MemorySessionStore) Create(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.TokenDigest] = sess
	return nil
}

func (s *MemorySessionStore) Resolve(_ context.Context, tokenDigest string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[tokenDigest]
	if !ok {
		return Session{}, ErrNoSession
	}

	return sess, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, tokenDigest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, tokenDigest)
	return nil
}
