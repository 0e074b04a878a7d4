package dataset

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/uacensus/internal/model"
)

// Manifest describes one cleaning run and the files it produced.
type Manifest struct {
	RunID       string            `yaml:"run_id"`
	Source      string            `yaml:"source"`
	GeneratedAt time.Time         `yaml:"generated_at"`
	MinYear     int               `yaml:"min_year"`
	Outputs     map[string]string `yaml:"outputs"`
	Quality     model.Quality     `yaml:"quality"`
	Drops       []model.Drop      `yaml:"drops,omitempty"`
}

// NewManifest starts a manifest for the given source with a fresh run id.
func NewManifest(source string, minYear int) *Manifest {
	return &Manifest{
		RunID:       uuid.New().String(),
		Source:      source,
		GeneratedAt: time.Now().UTC(),
		MinYear:     minYear,
		Outputs:     make(map[string]string),
	}
}

// WriteManifest saves m as YAML.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write manifest %s", path)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "dataset: parse manifest")
	}
	return &m, nil
}
