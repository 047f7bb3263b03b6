package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Extension is the file extension of stored images
const Extension = ".png"

// Manager maps image identifiers to files in a flat output directory
type Manager struct {
	outputDir string
	atomic    bool
	mu        sync.Mutex
	written   int
}

// Option configures a Manager
type Option func(*Manager)

// WithAtomicWrites controls whether Save writes through a temporary file
// and renames it into place. Enabled by default.
func WithAtomicWrites(enabled bool) Option {
	return func(m *Manager) {
		m.atomic = enabled
	}
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		atomic:    true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Path returns the file path for id
func (m *Manager) Path(id string) string {
	return filepath.Join(m.outputDir, id+Extension)
}

// Exists reports whether a file is present at the path for id. Content is
// not inspected; an empty or corrupt file still counts.
func (m *Manager) Exists(id string) bool {
	_, err := os.Stat(m.Path(id))
	return err == nil
}

// Save writes everything read from r to the path for id
func (m *Manager) Save(id string, r io.Reader) error {
	filename := m.Path(id)

	var err error
	if m.atomic {
		err = writeAtomic(filename, r)
	} else {
		err = writeDirect(filename, r)
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.written++
	m.mu.Unlock()
	return nil
}

func writeAtomic(filename string, r io.Reader) error {
	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func writeDirect(filename string, r io.Reader) error {
	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		return fmt.Errorf("failed to save image data: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	return nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// WrittenCount returns the number of images saved by this manager
func (m *Manager) WrittenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}
