package session

import (
	"context"
	"sync"

	"github.com/zoramarket/cart-service/internal/ports"
)

const userOwnerPrefix = "user:"

// UserOwner is the cart owner id for an authenticated subject.
func UserOwner(subject string) string {
	return userOwnerPrefix + subject
}

// Store remembers the latest session token per cart owner so background
// syncs can call the remote cart on the user's behalf.
type Store struct {
	verifier *TokenVerifier
	mu       sync.RWMutex
	tokens   map[string]string
}

// NewStore records tokens accepted by verifier. A nil verifier has no secret
// and rejects every token.
func NewStore(verifier *TokenVerifier) *Store {
	if verifier == nil {
		verifier = NewTokenVerifier("")
	}
	return &Store{verifier: verifier, tokens: make(map[string]string)}
}

// Authenticate validates raw, records it as the owner's active token and
// returns the owner id.
func (s *Store) Authenticate(raw string) (string, error) {
	claims, err := s.verifier.Verify(raw)
	if err != nil {
		return "", err
	}
	owner := UserOwner(claims.Subject)
	s.mu.Lock()
	s.tokens[owner] = raw
	s.mu.Unlock()
	return owner, nil
}

// AccessToken returns the owner's token while it is still valid. Expired
// tokens are dropped.
func (s *Store) AccessToken(_ context.Context, owner string) (string, bool) {
	s.mu.RLock()
	raw, ok := s.tokens[owner]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if _, err := s.verifier.Verify(raw); err != nil {
		s.mu.Lock()
		if s.tokens[owner] == raw {
			delete(s.tokens, owner)
		}
		s.mu.Unlock()
		return "", false
	}
	return raw, true
}

var _ ports.SessionSource = (*Store)(nil)
