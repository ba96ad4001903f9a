package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalTokenStore_Validation(t *testing.T) {
	_, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: t.TempDir(), FileMode: true})
	assert.Error(t, err, "server URL is required")

	_, err = NewLocalTokenStore(LocalTokenStoreConfig{ServerURL: "http://localhost:8000", FileMode: true})
	assert.Error(t, err, "storage dir is required in file mode")

	_, err = NewLocalTokenStore(LocalTokenStoreConfig{ServerURL: "http://localhost:8000"})
	assert.NoError(t, err, "memory mode needs no directory")
}

func TestLocalTokenStore_FilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	store, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: dir, ServerURL: "http://localhost:8000", FileMode: true})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	if info.Mode().Perm() != 0700 {
		t.Errorf("directory permissions = %o, want 0700", info.Mode().Perm())
	}

	require.NoError(t, store.Save("secret-token"))

	info, err = os.Stat(store.Path())
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file permissions = %o, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestLocalTokenStore_SaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	cfg := LocalTokenStoreConfig{StorageDir: dir, ServerURL: "http://localhost:8000/", FileMode: true}

	store, err := NewLocalTokenStore(cfg)
	require.NoError(t, err)

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("tkn1"))

	// A second store simulates the next process.
	reopened, err := NewLocalTokenStore(cfg)
	require.NoError(t, err)
	token, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, "tkn1", token)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var stored StoredToken
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "http://localhost:8000", stored.ServerURL)
	assert.True(t, stored.ExpiresAt.IsZero(), "opaque tokens carry no expiry")
	assert.False(t, stored.CreatedAt.IsZero())

	require.NoError(t, reopened.Delete())
	assert.NoFileExists(t, store.Path())
	require.NoError(t, reopened.Delete(), "deleting twice is not an error")

	token, err = reopened.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLocalTokenStore_RecordsJWTExpiry(t *testing.T) {
	store, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: t.TempDir(), ServerURL: "http://x", FileMode: true})
	require.NoError(t, err)

	exp := fixedTime.Add(50 * time.Minute)
	require.NoError(t, store.Save(signedToken(t, exp)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	var stored StoredToken
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.True(t, stored.ExpiresAt.Equal(exp), "expires_at = %v, want %v", stored.ExpiresAt, exp)
}

func TestLocalTokenStore_PerServerFiles(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: dir, ServerURL: "https://a.example.com", FileMode: true})
	require.NoError(t, err)
	b, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: dir, ServerURL: "https://b.example.com", FileMode: true})
	require.NoError(t, err)

	require.NoError(t, a.Save("token-a"))
	require.NoError(t, b.Save("token-b"))
	assert.NotEqual(t, a.Path(), b.Path())

	assert.Equal(t, filepath.Join(dir, tokenKey("https://a.example.com")+".json"), a.Path())
	assert.Len(t, tokenKey("https://a.example.com"), 16)

	require.NoError(t, a.Delete())
	token, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, "token-b", token)
}

func TestLocalTokenStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	cfg := LocalTokenStoreConfig{StorageDir: dir, ServerURL: "http://x", FileMode: true}
	store, err := NewLocalTokenStore(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0600))

	token, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save("fresh"))
	reopened, err := NewLocalTokenStore(cfg)
	require.NoError(t, err)
	token, err = reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
}

func TestLocalTokenStore_MemoryMode(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalTokenStore(LocalTokenStoreConfig{StorageDir: dir, ServerURL: "http://x"})
	require.NoError(t, err)

	require.NoError(t, store.Save("tok"))
	token, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "memory mode must not touch the disk")

	require.NoError(t, store.Delete())
	token, _ = store.Load()
	assert.Empty(t, token)
}
