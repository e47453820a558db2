package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Project settings
	ProjectPath string `yaml:"-"`
	SourcePath  string `yaml:"source_path"`

	// Output settings
	OutputDir string `yaml:"output_dir"`
	OutputExt string `yaml:"output_ext"`
	SourceExt string `yaml:"source_ext"`
	Markers   bool   `yaml:"markers"`

	// Manifest settings
	ManifestFile string `yaml:"manifest_file"`
	ManifestDir  string `yaml:"manifest_dir"`

	// Execution settings
	Processors int `yaml:"processors"`

	// Paths to ignore when scanning, and globs a source must match to be included
	PathsToIgnore []string `yaml:"ignore"`
	Include       []string `yaml:"include"`

	// Command flags
	Flags Flags `yaml:"-"`
}

// Flags holds command-line flags
type Flags struct {
	Markers    bool
	Processors int
	SourcePath string
	OutputDir  string
	NameFilter string
	Include    []string
	FailFast   bool
	WithTests  bool
}

// New creates a new Config with defaults
func New() *Config {
	cfg := &Config{
		ProjectPath:  DefaultProjectPath,
		SourcePath:   DefaultSourcePath,
		OutputDir:    DefaultOutputDir,
		OutputExt:    DefaultOutputExt,
		SourceExt:    DefaultSourceExt,
		ManifestFile: DefaultManifestFile,
		ManifestDir:  DefaultManifestDir,
		Processors:   DefaultProcessors,
		Flags:        Flags{Processors: DefaultProcessors},
	}
	// Copy default paths to ignore
	cfg.PathsToIgnore = make([]string, len(DefaultPathsToIgnore))
	copy(cfg.PathsToIgnore, DefaultPathsToIgnore)
	return cfg
}

// Load builds the effective configuration for projectPath: defaults, then the
// project's config file, then .env and process environment.
func Load(projectPath string) (*Config, error) {
	cfg := New()
	if projectPath != "" {
		cfg.ProjectPath = projectPath
	}
	if err := cfg.LoadFile(filepath.Join(cfg.ProjectPath, DefaultConfigFile)); err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(filepath.Join(cfg.ProjectPath, DefaultEnvFile)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays settings from a YAML file. A missing file is not an error.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadEnv loads envFile into the process environment (existing variables win)
// and applies PFPP_* overrides. A missing env file is not an error.
func (c *Config) LoadEnv(envFile string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env file: %w", err)
	}

	if v, ok := os.LookupEnv(EnvMarkers); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMarkers, err)
		}
		c.Markers = b
	}
	if v, ok := os.LookupEnv(EnvProcessors); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: expected a positive integer, got %q", EnvProcessors, v)
		}
		c.Processors = n
	}
	if v, ok := os.LookupEnv(EnvOutputDir); ok {
		c.OutputDir = v
	}
	if v, ok := os.LookupEnv(EnvOutputExt); ok && v != "" {
		c.OutputExt = v
	}
	if v, ok := os.LookupEnv(EnvSourceExt); ok && v != "" {
		c.SourceExt = v
	}
	return nil
}

// ApplyFlags overlays command-line flags, which take precedence over everything else.
func (c *Config) ApplyFlags(flags Flags) {
	c.Flags = flags

	if flags.Markers {
		c.Markers = true
	}
	if flags.Processors > 0 {
		c.Processors = flags.Processors
	}
	if flags.SourcePath != "" {
		c.SourcePath = flags.SourcePath
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if len(flags.Include) > 0 {
		c.Include = append([]string(nil), flags.Include...)
	}
}

// GetSourcePath returns the directory scanned for sources
func (c *Config) GetSourcePath() string {
	if filepath.IsAbs(c.SourcePath) {
		return c.SourcePath
	}
	return filepath.Join(c.ProjectPath, c.SourcePath)
}

// TargetPath returns where the translation of source is written. Without an
// output directory the target sits next to the source.
func (c *Config) TargetPath(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)) + c.OutputExt
	if c.OutputDir == "" {
		return filepath.Join(filepath.Dir(source), name)
	}

	dir := c.OutputDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(c.ProjectPath, dir)
	}
	// Keep the source tree layout below the output directory.
	if rel, err := filepath.Rel(c.GetSourcePath(), filepath.Dir(source)); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join(dir, rel, name)
	}
	return filepath.Join(dir, name)
}

// GetManifestPath returns the absolute path of the batch manifest, so every
// command reads and writes the same file regardless of cwd.
func (c *Config) GetManifestPath() string {
	p := filepath.Join(c.ProjectPath, c.ManifestDir, c.ManifestFile)
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
