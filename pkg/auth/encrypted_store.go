package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000

	passphraseEnv = "SENTINELFETCH_PASSPHRASE"
)

// EncryptedFileStore implements CredentialStore using an AES-GCM encrypted
// file whose key is derived from a passphrase with PBKDF2
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

// vault is the decrypted content of the file
type vault struct {
	salt    []byte
	entries map[string]Credentials
}

// vaultFile is the on-disk envelope
type vaultFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// NewEncryptedFileStore creates a new encrypted file-based credential store
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := loadPassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}

	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// Store saves credentials to the encrypted file
func (e *EncryptedFileStore) Store(creds *Credentials) error {
	if creds == nil || creds.Name == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load existing data: %w", err)
	}
	if v == nil {
		v = &vault{entries: make(map[string]Credentials)}
	}

	v.entries[creds.Name] = *creds
	return e.save(v)
}

// Retrieve gets credentials from the encrypted file
func (e *EncryptedFileStore) Retrieve(name string) (*Credentials, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	creds, ok := v.entries[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &creds, nil
}

// List returns all stored credentials
func (e *EncryptedFileStore) List() ([]*Credentials, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return []*Credentials{}, nil
		}
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	result := make([]*Credentials, 0, len(v.entries))
	for _, creds := range v.entries {
		c := creds
		result = append(result, &c)
	}
	return result, nil
}

// Delete removes credentials from the encrypted file. The file is removed
// once it holds nothing.
func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidCredentials
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.load()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to load data: %w", err)
	}

	if _, ok := v.entries[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(v.entries, name)

	if len(v.entries) == 0 {
		return os.Remove(e.path)
	}
	return e.save(v)
}

// Exists checks if credentials exist
func (e *EncryptedFileStore) Exists(name string) bool {
	creds, err := e.Retrieve(name)
	return err == nil && creds != nil
}

// load reads and decrypts the file
func (e *EncryptedFileStore) load() (*vault, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var file vaultFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encrypted data: %w", err)
	}

	plaintext, err := decrypt(sealed, e.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	entries := make(map[string]Credentials)
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	return &vault{salt: salt, entries: entries}, nil
}

// save encrypts v and replaces the file atomically
func (e *EncryptedFileStore) save(v *vault) error {
	if len(v.salt) == 0 {
		v.salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, v.salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
	}

	plaintext, err := json.Marshal(v.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	sealed, err := encrypt(plaintext, e.deriveKey(v.salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt data: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Salt:      base64.StdEncoding.EncodeToString(v.salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal file data: %w", err)
	}

	tempFile := e.path + ".tmp"
	if err := os.WriteFile(tempFile, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tempFile, e.path)
}

func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
}

// loadPassphrase returns SENTINELFETCH_PASSPHRASE when set, otherwise a
// random passphrase persisted next to the credentials file
func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(passphraseEnv); pass != "" {
		return pass, nil
	}

	passphraseFile := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(passphraseFile); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := os.WriteFile(passphraseFile, []byte(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

// encrypt seals plaintext with AES-GCM, prefixing the nonce
func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// decrypt opens a nonce-prefixed AES-GCM ciphertext
func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
