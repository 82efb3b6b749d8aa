package bundler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClassifyArchive_GzipTar verifies a gzip-signed file is tagged as a tarball
// and serves directly as the payload without touching zip logic.
func TestClassifyArchive_GzipTar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "injector.tgz")
	makePayloadTarball(t, archivePath, map[string]string{
		"mnt/onboard/add-ons/menu-fragment/entry.cfg": "menu_item:main:Reader",
	})

	archive, err := ClassifyArchive(context.Background(), archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatGzipTar, archive.Format)

	payloadPath, err := archive.LocatePayload(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, archivePath, payloadPath)
}

// TestClassifyArchive_ZipContainer verifies the payload member is extracted from a container.
func TestClassifyArchive_ZipContainer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payloadSource := filepath.Join(dir, "payload.tgz")
	makePayloadTarball(t, payloadSource, map[string]string{
		"mnt/onboard/add-ons/menu-fragment/entry.cfg": "menu_item:main:Reader",
	})

	archivePath := filepath.Join(dir, "injector.zip")
	makeContainerZip(t, archivePath, map[string][]byte{
		"release/" + FirmwareTarballName: readFileBytes(t, payloadSource),
		"README.md":                      []byte("injector readme"),
	})

	archive, err := ClassifyArchive(context.Background(), archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatZipContainer, archive.Format)

	payloadPath, err := archive.LocatePayload(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FirmwareTarballName), payloadPath)
	require.Equal(t, readFileBytes(t, payloadSource), readFileBytes(t, payloadPath))
}

// TestClassifyArchive_Unsupported verifies garbage input fails with ErrArchiveFormat.
func TestClassifyArchive_Unsupported(t *testing.T) {
	t.Parallel()

	archivePath := filepath.Join(t.TempDir(), "garbage.bin")
	require.NoError(t, os.WriteFile(archivePath, []byte("definitely not an archive"), 0o644))

	_, err := ClassifyArchive(context.Background(), archivePath)
	require.ErrorIs(t, err, ErrArchiveFormat)
}

// TestLocatePayload_MissingMember verifies a container without the payload
// member fails with ErrArchiveFormat.
func TestLocatePayload_MissingMember(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "injector.zip")
	makeContainerZip(t, archivePath, map[string][]byte{
		"README.md": []byte("no payload here"),
	})

	archive, err := ClassifyArchive(context.Background(), archivePath)
	require.NoError(t, err)
	require.Equal(t, FormatZipContainer, archive.Format)

	_, err = archive.LocatePayload(context.Background(), dir)
	require.ErrorIs(t, err, ErrArchiveFormat)
}

// TestFormatString covers the format tags used in logs.
func TestFormatString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "gzip-tar", FormatGzipTar.String())
	require.Equal(t, "zip-container", FormatZipContainer.String())
	require.Equal(t, "unknown", FormatUnknown.String())
}
