package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// DefaultName is used when credentials are stored without an explicit name
const DefaultName = "default"

// Credentials is a Sentinel Hub OAuth client (client credentials grant)
type Credentials struct {
	Name         string    `json:"name"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	// Store saves credentials under creds.Name
	Store(creds *Credentials) error

	// Retrieve gets credentials by name
	Retrieve(name string) (*Credentials, error)

	// List returns all stored credentials
	List() ([]*Credentials, error)

	// Delete removes credentials by name
	Delete(name string) error

	// Exists checks if credentials exist for a name
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a new credential manager with appropriate storage backends
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	// Environment first so exported variables always win
	stores = append(stores, NewEnvironmentStore())

	// System keychain when the platform has one
	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over an explicit list of stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds == nil {
		return ErrInvalidCredentials
	}
	if creds.Name == "" {
		creds.Name = DefaultName
	}
	if creds.ClientID == "" {
		return errors.New("client ID is required")
	}
	if creds.ClientSecret == "" {
		return errors.New("client secret is required")
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(creds)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(name string) (*Credentials, error) {
	for _, store := range m.stores {
		if creds, err := store.Retrieve(name); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
}

// RetrieveDefault returns the default credentials, or the most recently
// modified set when no default exists
func (m *Manager) RetrieveDefault() (*Credentials, error) {
	if creds, err := m.Retrieve(DefaultName); err == nil {
		return creds, nil
	}

	all, err := m.List()
	if err == nil && len(all) > 0 {
		return all[0], nil
	}

	return nil, ErrCredentialsNotFound
}

// Resolve returns the named credentials, or the default set when name is empty
func (m *Manager) Resolve(name string) (*Credentials, error) {
	if name == "" {
		return m.RetrieveDefault()
	}
	return m.Retrieve(name)
}

// List returns credentials from all stores, newest first
func (m *Manager) List() ([]*Credentials, error) {
	byName := make(map[string]*Credentials)

	for _, store := range m.stores {
		items, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range items {
			if existing, ok := byName[creds.Name]; !ok || creds.LastModified.After(existing.LastModified) {
				byName[creds.Name] = creds
			}
		}
	}

	result := make([]*Credentials, 0, len(byName))
	for _, creds := range byName {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].LastModified.After(result[j].LastModified)
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// Exists reports whether any store holds credentials for name
func (m *Manager) Exists(name string) bool {
	for _, store := range m.stores {
		if store.Exists(name) {
			return true
		}
	}
	return false
}

// Delete removes credentials from all stores
func (m *Manager) Delete(name string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, name)
	}

	return nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "sentinelfetch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "sentinelfetch")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "sentinelfetch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "sentinelfetch")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// Sanitize returns a copy of creds with the secret masked
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}

	return &Credentials{
		Name:         creds.Name,
		ClientID:     creds.ClientID,
		ClientSecret: maskString(creds.ClientSecret),
		LastModified: creds.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
