package bundler

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/reader-bundler/internal/logger"
)

// Format is the detected container format of the source archive.
type Format int

const (
	// FormatUnknown means the file matched no supported format.
	FormatUnknown Format = iota
	// FormatGzipTar marks a gzip-compressed tarball that is itself the firmware payload.
	FormatGzipTar
	// FormatZipContainer marks a zip container holding the firmware payload as a member.
	FormatZipContainer
)

// String implements fmt.Stringer for log output.
func (f Format) String() string {
	switch f {
	case FormatGzipTar:
		return "gzip-tar"
	case FormatZipContainer:
		return "zip-container"
	default:
		return "unknown"
	}
}

// SourceArchive is the classified user-supplied archive. Immutable once classified.
type SourceArchive struct {
	// Path is the location of the archive on disk.
	Path string
	// Format is the detected container format.
	Format Format
}

// gzipMagic is the two-byte signature of the gzip format.
var gzipMagic = []byte{0x1f, 0x8b}

// ClassifyArchive probes the file and returns it tagged with its format.
// Probing never shells out: the gzip signature is read directly and the zip
// directory is opened in-process.
func ClassifyArchive(ctx context.Context, archivePath string) (*SourceArchive, error) {
	format, err := detectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Classified source archive", "path", archivePath, "format", format.String())

	return &SourceArchive{
		Path:   archivePath,
		Format: format,
	}, nil
}

// detectFormat reads the gzip signature and falls back to the zip directory.
func detectFormat(archivePath string) (Format, error) {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return FormatUnknown, fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	magic := make([]byte, len(gzipMagic))
	if _, err = io.ReadFull(file, magic); err != nil {
		return FormatUnknown, fmt.Errorf("%s: %w", archivePath, ErrArchiveFormat)
	}

	if bytes.Equal(magic, gzipMagic) {
		return FormatGzipTar, nil
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return FormatUnknown, fmt.Errorf("%s: %w", archivePath, ErrArchiveFormat)
		}

		return FormatUnknown, fmt.Errorf("open zip container: %w", err)
	}

	_ = reader.Close()

	return FormatZipContainer, nil
}

// LocatePayload produces the firmware payload tarball for the archive.
//
// A gzip tarball is the payload itself and is returned untouched. A zip
// container has its payload member extracted into destDir. A container
// lacking the member fails with ErrArchiveFormat.
func (a *SourceArchive) LocatePayload(ctx context.Context, destDir string) (string, error) {
	if a.Format == FormatGzipTar {
		return a.Path, nil
	}

	reader, err := zip.OpenReader(a.Path)
	if err != nil {
		return "", fmt.Errorf("open zip container: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, member := range reader.File {
		if path.Base(member.Name) != FirmwareTarballName {
			continue
		}

		payloadPath := filepath.Join(destDir, FirmwareTarballName)
		if err = extractZipMember(member, payloadPath); err != nil {
			return "", err
		}

		logger.InfoKV(ctx, "Extracted firmware payload from container",
			"member", member.Name, "path", payloadPath)

		return payloadPath, nil
	}

	return "", fmt.Errorf("container has no %s member: %w", FirmwareTarballName, ErrArchiveFormat)
}

// extractZipMember copies a single zip member to the destination path.
func extractZipMember(member *zip.File, destPath string) error {
	source, err := member.Open()
	if err != nil {
		return fmt.Errorf("open member %s: %w", member.Name, err)
	}

	defer func() {
		_ = source.Close()
	}()

	dest, err := os.OpenFile(filepath.Clean(destPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return fmt.Errorf("create payload file: %w", err)
	}

	if _, err = io.Copy(dest, source); err != nil {
		_ = dest.Close()

		return fmt.Errorf("extract member %s: %w", member.Name, err)
	}

	return dest.Close()
}
