package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Manager owns the capture output directory
type Manager struct {
	outputDir string
	mu        sync.Mutex
}

// NewManager creates a new storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// Path returns the absolute-or-relative path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// WriteFileAtomic writes data to name via a temporary file and rename, so
// readers never observe a partial file
func (m *Manager) WriteFileAtomic(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	filename := m.Path(name)
	tempFile := filename + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	if err == nil {
		err = out.Sync()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
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

// OpenStream opens name for line-delimited JSON output. The file is
// truncated unless appendMode is set.
func (m *Manager) OpenStream(name string, appendMode bool) (*Stream, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	path := m.Path(name)
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	return &Stream{file: f, path: path}, nil
}

// Stream appends one JSON document per line. Every record goes to the file
// in a single unbuffered write, so an abrupt stop leaves only whole lines
// behind (at worst a torn final line).
type Stream struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	count  int
	closed bool
}

// Append writes v as one line
func (s *Stream) Append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("output stream %s is closed", s.path)
	}
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	s.count++
	return nil
}

// Count returns the number of records written through this stream
func (s *Stream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Path returns the file path of the stream
func (s *Stream) Path() string {
	return s.path
}

// Close syncs and closes the file. Closing twice is a no-op.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	syncErr := s.file.Sync()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close output stream: %w", err)
	}
	if syncErr != nil {
		return fmt.Errorf("failed to sync output stream: %w", syncErr)
	}
	return nil
}
