package auth

import "sync"

// MockStore implements CredentialStore in memory for tests
type MockStore struct {
	entries map[string]*Credentials
	mu      sync.RWMutex

	// Error injection
	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore creates a new mock credential store
func NewMockStore() *MockStore {
	return &MockStore{entries: make(map[string]*Credentials)}
}

// Store saves a copy of creds
func (m *MockStore) Store(creds *Credentials) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if creds == nil || creds.Name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	m.entries[creds.Name] = &c
	return nil
}

// Retrieve returns a copy of the named credentials
func (m *MockStore) Retrieve(name string) (*Credentials, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds, ok := m.entries[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	c := *creds
	return &c, nil
}

// List returns copies of all entries
func (m *MockStore) List() ([]*Credentials, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Credentials, 0, len(m.entries))
	for _, creds := range m.entries {
		c := *creds
		result = append(result, &c)
	}
	return result, nil
}

// Delete removes the named entry
func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if name == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.entries, name)
	return nil
}

// Exists checks if the named entry exists
func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[name]
	return ok
}

// Count returns the number of stored entries
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// NewMockManager creates a Manager backed by a single MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
