package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	keyringService  = "sentinelfetch"
	keyringPrefix   = "client_"
	keyringIndexKey = "index"
)

// KeyringStore implements CredentialStore using the system keychain.
// The keychain cannot enumerate entries, so known names are kept in an
// index entry alongside them.
type KeyringStore struct {
	mu sync.Mutex
}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(creds *Credentials) error {
	if creds == nil || creds.Name == "" {
		return ErrInvalidCredentials
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Set(keyringService, keyringPrefix+creds.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	names, err := k.readIndex()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == creds.Name {
			return nil
		}
	}
	return k.writeIndex(append(names, creds.Name))
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(name string) (*Credentials, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}

// List returns all credentials named in the index
func (k *KeyringStore) List() ([]*Credentials, error) {
	k.mu.Lock()
	names, err := k.readIndex()
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := make([]*Credentials, 0, len(names))
	for _, name := range names {
		creds, err := k.Retrieve(name)
		if err != nil {
			continue
		}
		result = append(result, creds)
	}
	return result, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	names, err := k.readIndex()
	if err != nil {
		return err
	}
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	return k.writeIndex(kept)
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+name)
	return err == nil
}

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, keyringIndexKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	return names, nil
}

func (k *KeyringStore) writeIndex(names []string) error {
	if len(names) == 0 {
		err := keyring.Delete(keyringService, keyringIndexKey)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to clear keyring index: %w", err)
		}
		return nil
	}

	sort.Strings(names)
	data, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal keyring index: %w", err)
	}
	if err := keyring.Set(keyringService, keyringIndexKey, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring index: %w", err)
	}
	return nil
}
