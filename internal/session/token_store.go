package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"datamart/pkg/logging"
)

// TokenStore persists the bearer token across process restarts.
// The Manager is its only writer.
type TokenStore interface {
	// Load returns the stored token, or "" if there is none.
	Load() (string, error)
	// Save replaces the stored token.
	Save(token string) error
	// Delete removes the stored token. Deleting an absent token is not an error.
	Delete() error
}

// StoredToken is the on-disk form of the bearer token.
type StoredToken struct {
	// Token is the opaque bearer credential.
	Token string `json:"token"`

	// ServerURL is the backend the token authenticates to.
	ServerURL string `json:"server_url"`

	// ExpiresAt is the JWT exp claim, zero for opaque tokens.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// CreatedAt is when the token was stored.
	CreatedAt time.Time `json:"created_at"`
}

// LocalTokenStoreConfig configures a LocalTokenStore.
type LocalTokenStoreConfig struct {
	// StorageDir is the directory for token files.
	StorageDir string

	// ServerURL selects which backend's token this store holds.
	ServerURL string

	// FileMode enables file persistence. If false, the token lives in memory only.
	FileMode bool
}

// LocalTokenStore keeps the token for one backend in memory and, in file
// mode, in <StorageDir>/<hash(ServerURL)>.json.
//
// SECURITY: the file is written with 0600 permissions inside a 0700
// directory, and token values are never logged.
type LocalTokenStore struct {
	mu        sync.Mutex
	dir       string
	serverURL string
	fileMode  bool
	cached    *StoredToken
	loaded    bool
}

// NewLocalTokenStore creates a token store for cfg.ServerURL.
func NewLocalTokenStore(cfg LocalTokenStoreConfig) (*LocalTokenStore, error) {
	if cfg.ServerURL == "" {
		return nil, errors.New("token store requires a server URL")
	}
	if cfg.FileMode {
		if cfg.StorageDir == "" {
			return nil, errors.New("token store requires a storage directory in file mode")
		}
		if err := os.MkdirAll(cfg.StorageDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create token storage directory: %w", err)
		}
	}

	return &LocalTokenStore{
		dir:       cfg.StorageDir,
		serverURL: normalizeServerURL(cfg.ServerURL),
		fileMode:  cfg.FileMode,
	}, nil
}

// Load implements TokenStore.
func (s *LocalTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded || !s.fileMode {
		if s.cached == nil {
			return "", nil
		}
		return s.cached.Token, nil
	}

	data, err := os.ReadFile(s.filePath())
	if errors.Is(err, os.ErrNotExist) {
		s.loaded = true
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var stored StoredToken
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt file is as good as no token; Save will overwrite it.
		logging.Warn("Session", "Ignoring unreadable token file for %s: %v", s.serverURL, err)
		s.loaded = true
		return "", nil
	}

	s.cached = &stored
	s.loaded = true
	return stored.Token, nil
}

// Save implements TokenStore.
func (s *LocalTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := &StoredToken{
		Token:     token,
		ServerURL: s.serverURL,
		CreatedAt: time.Now(),
	}
	if exp, ok := TokenExpiry(token); ok {
		stored.ExpiresAt = exp
	}

	if s.fileMode {
		if err := s.writeFile(stored); err != nil {
			logging.Audit(logging.AuditEvent{Event: "token_store_failed", Target: s.serverURL, Err: err})
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}

	s.cached = stored
	s.loaded = true

	logging.Audit(logging.AuditEvent{Event: "token_stored", Target: s.serverURL, Outcome: storageOutcome(s.fileMode)})
	return nil
}

// Delete implements TokenStore.
func (s *LocalTokenStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	s.loaded = true

	if s.fileMode {
		if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete token file: %w", err)
		}
	}

	logging.Audit(logging.AuditEvent{Event: "token_deleted", Target: s.serverURL})
	return nil
}

// Path returns the token file location.
func (s *LocalTokenStore) Path() string {
	return s.filePath()
}

func (s *LocalTokenStore) filePath() string {
	return filepath.Join(s.dir, tokenKey(s.serverURL)+".json")
}

func (s *LocalTokenStore) writeFile(stored *StoredToken) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Write through a temp file so a crash never leaves a half-written token.
	tmp, err := os.CreateTemp(s.dir, ".token-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.filePath())
}

func storageOutcome(fileMode bool) string {
	if fileMode {
		return "file"
	}
	return "memory"
}

// tokenKey derives the file name for a server URL.
func tokenKey(serverURL string) string {
	sum := sha256.Sum256([]byte(serverURL))
	return hex.EncodeToString(sum[:])[:16]
}

func normalizeServerURL(serverURL string) string {
	return strings.TrimRight(strings.TrimSpace(serverURL), "/")
}
