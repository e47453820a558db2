package storage

import (
	"time"

	"pfpp/internal/config"
	"pfpp/internal/domain"
)

// Storage persists and loads the manifest of the last batch run (e.g. for the inspector).
type Storage interface {
	Save(results []domain.TranslationResult, duration time.Duration, workers int) (*domain.Manifest, error)
	Load() (*domain.Manifest, error)
	// SaveManifest writes the full manifest (e.g. after the watcher re-translates a file).
	SaveManifest(manifest *domain.Manifest) error
	// Record folds a single result into the stored manifest.
	Record(result domain.TranslationResult) error
}

// JSONStorage stores the manifest in a JSON file under the configured manifest path.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's manifest path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
