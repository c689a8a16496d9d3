package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gvdkamdar/GenUI-for-bookmarks/pkg/logger"
)

const manifestVersion = 1

// Checkpoint records how a capture session ended. It is written once the
// session terminates, so its presence marks the NDJSON output as complete.
type Checkpoint struct {
	RunID      string    `json:"run_id"`
	Output     string    `json:"output"`
	Records    int       `json:"records"`
	Responses  int       `json:"responses"`
	State      string    `json:"state"`
	Reason     string    `json:"reason"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Version    int       `json:"version"`
}

// Complete reports whether the session reached its idle termination
func (c *Checkpoint) Complete() bool {
	return c != nil && c.State == "terminated"
}

// Manager handles the checkpoint file that sits next to a capture output
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// PathFor returns the checkpoint path for an NDJSON output file:
// out/bookmarks.ndjson -> out/bookmarks.capture.json
func PathFor(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".capture.json"
}

// NewManager creates a checkpoint manager for the given capture output
func NewManager(outputPath string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		checkpointPath: PathFor(outputPath),
		logger:         log,
	}
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Load reads the checkpoint. A missing file yields (nil, nil).
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open capture manifest: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("decode capture manifest: %w", err)
	}

	m.logger.DebugWithFields("Capture manifest loaded", map[string]interface{}{
		"run_id":  checkpoint.RunID,
		"output":  checkpoint.Output,
		"records": checkpoint.Records,
		"state":   checkpoint.State,
	})

	return &checkpoint, nil
}

// Save writes the checkpoint atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.Version = manifestVersion

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("create capture manifest: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encode capture manifest: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("sync capture manifest: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("close capture manifest: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("replace capture manifest: %w", err)
	}

	m.logger.InfoWithFields("Capture manifest saved", map[string]interface{}{
		"path":    m.checkpointPath,
		"run_id":  checkpoint.RunID,
		"records": checkpoint.Records,
		"state":   checkpoint.State,
	})

	return nil
}

// Delete removes the checkpoint file; a missing file is not an error
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete capture manifest: %w", err)
	}
	return nil
}
