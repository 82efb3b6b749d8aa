package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds bundling parameters shared by the reader-bundler binary.
type Config struct {
	// AppName is the application namespace inside the add-ons tree and the
	// prefix of every output artifact.
	AppName string `yaml:"app_name"`
	// DistDir is the directory holding the prebuilt application distribution.
	DistDir string `yaml:"dist_dir"`
	// FragmentsDir is the directory holding contributed menu-injector fragments.
	FragmentsDir string `yaml:"fragments_dir"`
	// OutputDir is where the artifacts and the release manifest are written.
	OutputDir string `yaml:"output_dir"`
	// BuildCommand is the external command invoked once when DistDir is missing.
	// Empty means the pipeline fails instead of building.
	BuildCommand string `yaml:"build_command"`
	// BuildTimeout bounds the external build command.
	BuildTimeout time.Duration `yaml:"build_timeout"`
	// AppVersion overrides version resolution from the distribution metadata.
	// It is set at runtime from the CLI flag and is not persisted to YAML.
	AppVersion string `yaml:"-"`
	// KeepStaging leaves the staging tree behind for inspection.
	// It is set at runtime from the CLI flag and is not persisted to YAML.
	KeepStaging bool `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for bundler settings.
	DefaultConfigFilename = "reader-bundler-settings.yaml"

	// DefaultAppName is the application namespace used when none is configured.
	DefaultAppName = "reader"

	// DefaultDistDir is the conventional relative location of the prebuilt distribution.
	DefaultDistDir = "dist"

	// DefaultBuildTimeout bounds the external build command.
	DefaultBuildTimeout = 10 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// DefaultFragmentsDir is the conventional location of contributed menu fragments.
var DefaultFragmentsDir = filepath.Join("contrib", "menu-fragments")

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameInvalid is returned when the application name cannot be used in filenames.
	errAppNameInvalid = errors.New("application name must not contain path separators")
)

// Default returns a configuration filled with the conventional values.
func Default() *Config {
	return &Config{
		AppName:      DefaultAppName,
		DistDir:      DefaultDistDir,
		FragmentsDir: DefaultFragmentsDir,
		OutputDir:    ".",
		BuildTimeout: DefaultBuildTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file yields the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills in defaults for empty fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	if strings.ContainsAny(cfg.AppName, `/\`) {
		return fmt.Errorf("%q: %w", cfg.AppName, errAppNameInvalid)
	}

	if cfg.DistDir == "" {
		cfg.DistDir = DefaultDistDir
	}

	if cfg.FragmentsDir == "" {
		cfg.FragmentsDir = DefaultFragmentsDir
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = DefaultBuildTimeout
	}

	return nil
}
