package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/reader-bundler/internal/config"
)

// writeRunConfig persists a bundler configuration rooted in the test directory.
func writeRunConfig(t *testing.T, dir string) (string, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.DistDir = filepath.Join(dir, "dist")
	cfg.FragmentsDir = filepath.Join(dir, "fragments")
	cfg.OutputDir = dir

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath, cfg
}

// TestRun_GzipArchive verifies a full run over a gzip tarball input.
func TestRun_GzipArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath, cfg := writeRunConfig(t, dir)

	writeTestFile(t, filepath.Join(cfg.DistDir, "main.bin"), "binary")
	writeTestFile(t, filepath.Join(cfg.DistDir, VersionMetadataFilename), "1.2.0\n")

	archivePath := filepath.Join(dir, "injector.tgz")
	makePayloadTarball(t, archivePath, map[string]string{
		"mnt/onboard/add-ons/menu-fragment/entry.cfg": "menu_item:main:Reader",
	})

	require.NoError(t, Run(context.Background(), &Options{
		ConfigPath:  cfgPath,
		ArchivePath: archivePath,
	}))

	_, err := os.Stat(filepath.Join(dir, "reader-1.2.0.zip"))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "reader-bundle-1.2.0.zip"))
	require.NoError(t, err)

	// The release manifest sits next to the artifacts.
	_, err = os.Stat(filepath.Join(dir, "reader-release-1.2.0.yaml"))
	require.NoError(t, err)

	// Staging and run marker are gone.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, entry := range entries {
		require.NotContains(t, entry.Name(), stagingPrefix)
		require.NotEqual(t, MarkerFilename, entry.Name())
	}
}

// TestRun_FailureWritesNoArtifacts verifies a failing run leaves no outputs
// and still removes the staging tree.
func TestRun_FailureWritesNoArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath, cfg := writeRunConfig(t, dir)

	writeTestFile(t, filepath.Join(cfg.DistDir, "main.bin"), "binary")
	writeTestFile(t, filepath.Join(cfg.DistDir, VersionMetadataFilename), "1.2.0\n")

	// Container without the payload member.
	archivePath := filepath.Join(dir, "injector.zip")
	makeContainerZip(t, archivePath, map[string][]byte{
		"README.md": []byte("no payload"),
	})

	err := Run(context.Background(), &Options{
		ConfigPath:  cfgPath,
		ArchivePath: archivePath,
	})
	require.ErrorIs(t, err, ErrArchiveFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, entry := range entries {
		// The input archive lives in the same directory; only produced
		// artifacts count.
		if entry.Name() == filepath.Base(archivePath) {
			continue
		}

		require.NotEqual(t, ".zip", filepath.Ext(entry.Name()))
		require.NotContains(t, entry.Name(), stagingPrefix)
	}
}

// TestRun_RefusesConcurrentRun verifies a fresh run marker blocks a second run.
func TestRun_RefusesConcurrentRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath, cfg := writeRunConfig(t, dir)

	writeTestFile(t, filepath.Join(cfg.DistDir, VersionMetadataFilename), "1.2.0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkerFilename), nil, 0o644))

	archivePath := filepath.Join(dir, "injector.tgz")
	makePayloadTarball(t, archivePath, map[string]string{
		"mnt/onboard/add-ons/menu-fragment/entry.cfg": "menu_item:main:Reader",
	})

	err := Run(context.Background(), &Options{
		ConfigPath:  cfgPath,
		ArchivePath: archivePath,
	})
	require.ErrorIs(t, err, ErrBundlerAlreadyRunning)
}
