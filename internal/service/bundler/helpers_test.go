package bundler

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeTestFile creates a file with parent directories.
func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// makePayloadTarball writes a gzip tarball with the provided name→contents entries.
func makePayloadTarball(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	gz := gzip.NewWriter(file)
	writer := tar.NewWriter(gz)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		contents := entries[name]
		require.NoError(t, writer.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(contents)),
			ModTime:  time.Unix(0, 0).UTC(),
			Typeflag: tar.TypeReg,
		}))

		_, err = writer.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, file.Close())
}

// makeContainerZip writes a zip archive with the provided name→contents members.
func makeContainerZip(t *testing.T, path string, members map[string][]byte) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(file)

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		member, err := writer.Create(name)
		require.NoError(t, err)

		_, err = member.Write(members[name])
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())
}

// readFileBytes reads a whole file.
func readFileBytes(t *testing.T, path string) []byte {
	t.Helper()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	return contents
}

// zipMemberNames lists the member names of a zip archive in sorted order.
func zipMemberNames(t *testing.T, path string) []string {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, reader.Close())
	}()

	names := make([]string, 0, len(reader.File))
	for _, member := range reader.File {
		names = append(names, member.Name)
	}

	sort.Strings(names)

	return names
}

// zipMemberContents extracts one member of a zip archive.
func zipMemberContents(t *testing.T, path, name string) []byte {
	t.Helper()

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, reader.Close())
	}()

	for _, member := range reader.File {
		if member.Name != name {
			continue
		}

		source, err := member.Open()
		require.NoError(t, err)

		contents, err := io.ReadAll(source)
		require.NoError(t, err)
		require.NoError(t, source.Close())

		return contents
	}

	t.Fatalf("member %s not found in %s", name, path)

	return nil
}

// tarballEntries reads a gzip tarball into a name→contents map.
func tarballEntries(t *testing.T, contents []byte) map[string]string {
	t.Helper()

	gz, err := gzip.NewReader(bytes.NewReader(contents))
	require.NoError(t, err)

	reader := tar.NewReader(gz)
	result := make(map[string]string)

	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}

		require.NoError(t, err)

		if header.Typeflag == tar.TypeDir {
			result[header.Name] = ""

			continue
		}

		if header.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(reader)
		require.NoError(t, err)

		result[header.Name] = string(data)
	}

	require.NoError(t, gz.Close())

	return result
}
