package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	creds := &Credentials{
		Name:         "research",
		ClientID:     "a1b2c3d4-client",
		ClientSecret: "s3cr3t-value-0987",
	}

	require.NoError(t, manager.Store(creds))
	assert.False(t, creds.LastModified.IsZero(), "Store should stamp LastModified")

	retrieved, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, creds.ClientID, retrieved.ClientID)
	assert.Equal(t, creds.ClientSecret, retrieved.ClientSecret)

	all, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, manager.Delete("research"))

	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorIs(t, manager.Store(nil), ErrInvalidCredentials)
	assert.Error(t, manager.Store(&Credentials{ClientSecret: "x"}))
	assert.Error(t, manager.Store(&Credentials{ClientID: "x"}))

	creds := &Credentials{ClientID: "id", ClientSecret: "secret"}
	require.NoError(t, manager.Store(creds))
	assert.Equal(t, DefaultName, creds.Name)
}

func TestManagerStoreFallsBack(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(NewEnvironmentStore(), broken, working)
	require.NoError(t, manager.Store(&Credentials{Name: "a", ClientID: "id", ClientSecret: "secret"}))

	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestManagerStoreAllFail(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("disk full")

	manager := NewManagerWithStores(broken)
	err := manager.Store(&Credentials{Name: "a", ClientID: "id", ClientSecret: "secret"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestManagerResolve(t *testing.T) {
	manager, store := NewMockManager()

	_, err := manager.Resolve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	older := &Credentials{Name: "old", ClientID: "old-id", ClientSecret: "old-secret", LastModified: time.Now().Add(-time.Hour)}
	newer := &Credentials{Name: "new", ClientID: "new-id", ClientSecret: "new-secret", LastModified: time.Now()}
	require.NoError(t, store.Store(older))
	require.NoError(t, store.Store(newer))

	creds, err := manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "new-id", creds.ClientID, "most recent set wins without a default")

	creds, err = manager.Resolve("old")
	require.NoError(t, err)
	assert.Equal(t, "old-id", creds.ClientID)

	require.NoError(t, store.Store(&Credentials{Name: DefaultName, ClientID: "default-id", ClientSecret: "s", LastModified: time.Now().Add(-2 * time.Hour)}))
	creds, err = manager.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "default-id", creds.ClientID, "default entry wins when present")
}

func TestManagerListPrefersNewest(t *testing.T) {
	a := NewMockStore()
	b := NewMockStore()
	now := time.Now()
	require.NoError(t, a.Store(&Credentials{Name: "x", ClientID: "stale", LastModified: now.Add(-time.Minute)}))
	require.NoError(t, b.Store(&Credentials{Name: "x", ClientID: "fresh", LastModified: now}))

	all, err := NewManagerWithStores(a, b).List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "fresh", all[0].ClientID)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewEnvironmentStore(), NewMockStore())
	err := manager.Delete("ghost")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerExists(t *testing.T) {
	a := NewMockStore()
	b := NewMockStore()
	require.NoError(t, b.Store(&Credentials{Name: "only-b", ClientID: "id", ClientSecret: "secret"}))

	manager := NewManagerWithStores(a, b)
	assert.True(t, manager.Exists("only-b"))
	assert.False(t, manager.Exists("missing"))
}

func TestSanitize(t *testing.T) {
	creds := &Credentials{Name: "n", ClientID: "client-id", ClientSecret: "abcdefghijklmnop"}
	sanitized := Sanitize(creds)

	assert.Equal(t, "abcd...mnop", sanitized.ClientSecret)
	assert.Equal(t, creds.ClientID, sanitized.ClientID)
	assert.Equal(t, "********", Sanitize(&Credentials{ClientSecret: "short"}).ClientSecret)
	assert.Nil(t, Sanitize(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv(passphraseEnv, "test_passphrase_123")
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	creds := &Credentials{Name: "enc", ClientID: "encrypted-client", ClientSecret: "encrypted-secret"}
	require.NoError(t, store.Store(creds))

	retrieved, err := store.Retrieve("enc")
	require.NoError(t, err)
	assert.Equal(t, creds.ClientSecret, retrieved.ClientSecret)
	assert.True(t, store.Exists("enc"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("encrypted-secret")), "file contains plaintext secret")
	assert.False(t, bytes.Contains(content, []byte("encrypted-client")), "file contains plaintext client ID")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Delete("enc"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store should remove its file")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	t.Setenv(passphraseEnv, "first")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credentials{Name: "a", ClientID: "id", ClientSecret: "secret"}))

	t.Setenv(passphraseEnv, "second")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = other.Retrieve("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(passphraseEnv, "")
	dir := t.TempDir()

	store, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	require.NoError(t, store.Store(&Credentials{Name: "a", ClientID: "id", ClientSecret: "secret"}))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)

	reopened, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	creds, err := reopened.Retrieve("a")
	require.NoError(t, err)
	assert.Equal(t, "secret", creds.ClientSecret)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(envClientID, "")
	t.Setenv(envClientSecret, "")
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))

	t.Setenv(envClientID, "env-client")
	t.Setenv(envClientSecret, "env-secret")

	creds, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, creds.Name)
	assert.Equal(t, "env-client", creds.ClientID)
	assert.Equal(t, "env-secret", creds.ClientSecret)

	assert.ErrorIs(t, store.Store(&Credentials{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("default"), ErrStoreUnavailable)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(&Credentials{Name: "alpha", ClientID: "a-id", ClientSecret: "a-secret"}))
	require.NoError(t, store.Store(&Credentials{Name: "beta", ClientID: "b-id", ClientSecret: "b-secret"}))
	require.NoError(t, store.Store(&Credentials{Name: "alpha", ClientID: "a-id-2", ClientSecret: "a-secret"}))

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	creds, err := store.Retrieve("alpha")
	require.NoError(t, err)
	assert.Equal(t, "a-id-2", creds.ClientID)

	require.NoError(t, store.Delete("alpha"))
	assert.False(t, store.Exists("alpha"))
	assert.ErrorIs(t, store.Delete("alpha"), ErrCredentialsNotFound)

	all, err = store.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "beta", all[0].Name)
}

func TestNewManager(t *testing.T) {
	keyring.MockInit()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv(passphraseEnv, "manager-test")
	t.Setenv(envClientID, "")
	t.Setenv(envClientSecret, "")

	manager, err := NewManager()
	require.NoError(t, err)

	require.NoError(t, manager.Store(&Credentials{Name: "lab", ClientID: "lab-id", ClientSecret: "lab-secret"}))
	creds, err := manager.Resolve("lab")
	require.NoError(t, err)
	assert.Equal(t, "lab-id", creds.ClientID)
	require.NoError(t, manager.Delete("lab"))
}

func TestShowClientSetupGuide(t *testing.T) {
	var buf bytes.Buffer
	ShowClientSetupGuide(&buf)
	assert.Contains(t, buf.String(), "OAuth client")
	assert.Contains(t, buf.String(), envClientSecret)
}
