package generator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ManifestFilename is the well-known manifest location inside a run's
// output directory.
const ManifestFilename = "manifest.yaml"

// Manifest entry statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ManifestEntry records the outcome of one variation job.
type ManifestEntry struct {
	ID     string `yaml:"id"`
	Prompt string `yaml:"prompt"`
	Status string `yaml:"status"`
	File   string `yaml:"file,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// Manifest is the durable, ordered record of every job's outcome for
// one run. Owned exclusively by the orchestrator until the run ends.
type Manifest struct {
	RunID       string          `yaml:"run_id"`
	GeneratedAt time.Time       `yaml:"generated_at"`
	Entries     []ManifestEntry `yaml:"entries"`
}

// NewManifest creates an empty manifest stamped with a fresh run id.
func NewManifest() *Manifest {
	return &Manifest{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}
}

// Append records one job outcome, preserving job order.
func (m *Manifest) Append(entry ManifestEntry) {
	m.Entries = append(m.Entries, entry)
}

// Flush serializes the manifest into outputDir. Called after every job
// so an interrupted run never leaves the manifest claiming more
// successes than files actually written.
func (m *Manifest) Flush(outputDir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, ManifestFilename), data, 0o644)
}
