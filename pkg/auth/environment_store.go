package auth

import (
	"os"
	"time"
)

const (
	envClientID     = "SENTINELFETCH_CLIENT_ID"
	envClientSecret = "SENTINELFETCH_CLIENT_SECRET"
)

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and always answers with a single credential set.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The exported pair
// answers for any name.
func (e *EnvironmentStore) Retrieve(name string) (*Credentials, error) {
	clientID := os.Getenv(envClientID)
	clientSecret := os.Getenv(envClientSecret)

	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultName
	}

	return &Credentials{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		LastModified: time.Now(),
	}, nil
}

// List returns a single entry if environment variables are set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(envClientID) != "" && os.Getenv(envClientSecret) != ""
}
