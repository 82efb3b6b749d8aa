package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and defaulting for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Nil configuration.
	err := Validate(nil)
	require.Error(t, err)

	// Empty configuration is filled with defaults.
	cfg := new(Config)

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultAppName, cfg.AppName)
	require.Equal(t, DefaultDistDir, cfg.DistDir)
	require.Equal(t, DefaultFragmentsDir, cfg.FragmentsDir)
	require.Equal(t, ".", cfg.OutputDir)
	require.Equal(t, DefaultBuildTimeout, cfg.BuildTimeout)

	// Application name with a path separator is rejected.
	cfg = &Config{AppName: "bad/name"}

	err = Validate(cfg)
	require.Error(t, err)
}

// TestLoad_MissingFile ensures a missing settings file yields defaults.
func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultAppName, cfg.AppName)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		AppName:      "reader",
		DistDir:      "build/dist",
		FragmentsDir: "contrib/menu-fragments",
		OutputDir:    "out",
		BuildCommand: "make dist",
		BuildTimeout: time.Minute,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.AppName, loaded.AppName)
	require.Equal(t, cfg.DistDir, loaded.DistDir)
	require.Equal(t, cfg.BuildCommand, loaded.BuildCommand)
	require.Equal(t, cfg.BuildTimeout, loaded.BuildTimeout)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
