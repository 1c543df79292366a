package credentials

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"golang.org/x/oauth2"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

// NewMemoryStore returns a store seeded with tok, which may be nil.
func NewMemoryStore(tok *oauth2.Token) *MemoryStore {
	return &MemoryStore{token: clone(tok)}
}

func (s *MemoryStore) Load(_ context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, errors.ErrNoCredentials
	}
	return clone(s.token), nil
}

func (s *MemoryStore) Save(_ context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = clone(tok)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	return nil
}
