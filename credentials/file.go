package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"golang.org/x/oauth2"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the token as JSON in a single file readable only by the
// current user. Writes go through a temp file and rename so readers never see
// a partial document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(_ context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, errors.ErrNoCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("[credentials FileStore.Load] %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("[credentials FileStore.Load] decoding %s: %w", s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.ErrNoCredentials
	}
	return &tok, nil
}

func (s *FileStore) Save(_ context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return s.Clear(context.Background())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("[credentials FileStore.Save] %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[credentials FileStore.Clear] %w", err)
	}
	return nil
}
