package credential

import (
	"context"
	"sync"
	"time"

	"github.com/kunlesxo/cyriox-storefront/internal/domain/auth"
)

type memoryEntry struct {
	cred      auth.Credential
	expiresAt time.Time
}

type challengeEntry struct {
	challenge auth.PendingOTPChallenge
	expiresAt time.Time
}

// MemoryStore is a mutex-guarded in-process Store used in development and
// tests. Expired entries are dropped lazily on read.
type MemoryStore struct {
	mu         sync.Mutex
	creds      map[string]memoryEntry
	challenges map[string]challengeEntry
	ttl        time.Duration
	nowFunc    func() time.Time // injectable clock for testing
}

// NewMemoryStore creates an empty in-memory store with the default TTL.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		creds:      make(map[string]memoryEntry),
		challenges: make(map[string]challengeEntry),
		ttl:        DefaultTTL,
		nowFunc:    time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, sessionID string, cred auth.Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, sessionID)
	s.creds[sessionID] = memoryEntry{
		cred:      cred,
		expiresAt: s.nowFunc().Add(credentialTTL(cred.RefreshToken, s.ttl)),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.creds[sessionID]
	if !ok {
		return auth.Credential{}, ErrNoCredential
	}
	if s.nowFunc().After(entry.expiresAt) {
		delete(s.creds, sessionID)
		return auth.Credential{}, ErrNoCredential
	}
	return entry.cred, nil
}

func (s *MemoryStore) ReplaceAccessToken(_ context.Context, sessionID, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.creds[sessionID]
	if !ok || s.nowFunc().After(entry.expiresAt) {
		delete(s.creds, sessionID)
		return ErrNoCredential
	}
	entry.cred.AccessToken = accessToken
	s.creds[sessionID] = entry
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, sessionID)
	delete(s.challenges, sessionID)
	return nil
}

func (s *MemoryStore) PutChallenge(_ context.Context, sessionID string, ch auth.PendingOTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, sessionID)
	s.challenges[sessionID] = challengeEntry{
		challenge: ch,
		expiresAt: s.nowFunc().Add(DefaultChallengeTTL),
	}
	return nil
}

func (s *MemoryStore) TakeChallenge(_ context.Context, sessionID string) (auth.PendingOTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.challenges[sessionID]
	delete(s.challenges, sessionID)
	if !ok || s.nowFunc().After(entry.expiresAt) {
		return auth.PendingOTPChallenge{}, ErrNoChallenge
	}
	return entry.challenge, nil
}
