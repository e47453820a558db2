package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"pfpp/internal/domain"
	"pfpp/internal/preprocessor"
)

// Save writes a manifest describing results to the configured JSON file.
func (s *JSONStorage) Save(results []domain.TranslationResult, duration time.Duration, workers int) (*domain.Manifest, error) {
	manifest := &domain.Manifest{
		Meta: domain.ManifestMeta{
			RunID:           uuid.New().String(),
			Markers:         s.cfg.Markers,
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Workers:         workers,
			Timestamp:       time.Now().Format(time.RFC3339),
		},
		Files:    []domain.ManifestEntry{},
		Failures: []domain.TranslationFailure{},
	}
	for _, r := range results {
		apply(manifest, r)
	}
	recount(manifest)

	if err := s.SaveManifest(manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// Load reads the last manifest from the configured JSON file.
func (s *JSONStorage) Load() (*domain.Manifest, error) {
	path := s.cfg.GetManifestPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest file: %w", err)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

// SaveManifest writes the full manifest to the configured JSON file.
func (s *JSONStorage) SaveManifest(manifest *domain.Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := s.cfg.GetManifestPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Record replaces the stored entry or failure for result.Source with result.
// A missing manifest is started fresh.
func (s *JSONStorage) Record(result domain.TranslationResult) error {
	manifest, err := s.Load()
	if errors.Is(err, os.ErrNotExist) {
		manifest = &domain.Manifest{
			Meta: domain.ManifestMeta{
				RunID:   uuid.New().String(),
				Markers: s.cfg.Markers,
				Workers: 1,
			},
		}
	} else if err != nil {
		return err
	}

	manifest.Files = removeEntry(manifest.Files, result.Source)
	manifest.Failures = removeFailure(manifest.Failures, result.Source)
	apply(manifest, result)
	sort.Slice(manifest.Files, func(i, j int) bool { return manifest.Files[i].Source < manifest.Files[j].Source })
	sort.Slice(manifest.Failures, func(i, j int) bool { return manifest.Failures[i].Source < manifest.Failures[j].Source })
	recount(manifest)
	manifest.Meta.Timestamp = time.Now().Format(time.RFC3339)

	return s.SaveManifest(manifest)
}

// FailureFrom converts a failed result into its manifest record.
func FailureFrom(r domain.TranslationResult) domain.TranslationFailure {
	f := domain.TranslationFailure{
		Source: r.Source,
		Kind:   preprocessor.ErrorKind(r.Error),
	}
	if r.Error != nil {
		f.Message = r.Error.Error()
	}
	var de *preprocessor.DirectiveError
	if errors.As(r.Error, &de) {
		f.Line = de.Line
		f.Directive = de.Directive
		f.Message = de.Err.Error()
	}
	return f
}

func apply(m *domain.Manifest, r domain.TranslationResult) {
	if !r.Success {
		m.Failures = append(m.Failures, FailureFrom(r))
		return
	}
	m.Files = append(m.Files, domain.ManifestEntry{
		Source:        r.Source,
		Target:        r.Target,
		SuiteName:     r.SuiteName,
		WrapModule:    r.WrapModule,
		Tests:         r.Tests,
		Registrations: r.Registrations,
	})
}

func recount(m *domain.Manifest) {
	m.Meta.TranslatedFiles = len(m.Files)
	m.Meta.FailedFiles = len(m.Failures)
	m.Meta.TotalFiles = len(m.Files) + len(m.Failures)
	m.Meta.TotalTests = 0
	m.Meta.Registrations = 0
	for _, f := range m.Files {
		m.Meta.TotalTests += len(f.Tests)
		m.Meta.Registrations += f.Registrations
	}
}

func removeEntry(files []domain.ManifestEntry, source string) []domain.ManifestEntry {
	out := files[:0]
	for _, f := range files {
		if f.Source != source {
			out = append(out, f)
		}
	}
	return out
}

func removeFailure(failures []domain.TranslationFailure, source string) []domain.TranslationFailure {
	out := failures[:0]
	for _, f := range failures {
		if f.Source != source {
			out = append(out, f)
		}
	}
	return out
}
