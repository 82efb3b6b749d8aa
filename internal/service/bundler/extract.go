package bundler

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/reader-bundler/internal/logger"
)

// ExtractPayload unpacks the firmware payload tarball into the staging tree
// and isolates the add-ons subtree at the staging root.
//
// Content found outside the conventional add-ons path is preserved under the
// os-additions subtree with a warning instead of being discarded, so nothing
// the injector ships is silently lost.
func ExtractPayload(ctx context.Context, payloadPath string, staging *StagingTree) error {
	scratch := staging.ScratchDir()
	if err := staging.Ensure(scratch); err != nil {
		return fmt.Errorf("create scratch area: %w", err)
	}

	if err := untarGzip(payloadPath, scratch); err != nil {
		return fmt.Errorf("unpack payload: %w", err)
	}

	if err := relocateAddons(ctx, staging); err != nil {
		return err
	}

	if err := preserveLeftovers(ctx, staging); err != nil {
		return err
	}

	return os.RemoveAll(scratch)
}

// untarGzip fully unpacks a gzip tarball into destDir.
func untarGzip(payloadPath, destDir string) error {
	file, err := os.Open(filepath.Clean(payloadPath))
	if err != nil {
		return err
	}

	defer func() {
		_ = file.Close()
	}()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("%s: %w", payloadPath, ErrArchiveFormat)
	}

	defer func() {
		_ = gz.Close()
	}()

	reader := tar.NewReader(gz)

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, DefaultFileMode); err != nil {
				return err
			}
		case tar.TypeReg:
			if err = writeTarFile(reader, target, header.FileInfo().Mode()); err != nil {
				return err
			}
		default:
			// Device nodes, links and the like have no place in an add-ons payload.
			continue
		}
	}
}

// writeTarFile streams one regular tar entry to disk.
func writeTarFile(reader io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), DefaultFileMode); err != nil {
		return err
	}

	file, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(file, reader); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// safeJoin joins an archive entry name onto root, rejecting traversal.
func safeJoin(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s: %w", name, errUnsafeTarPath)
	}

	return filepath.Join(root, cleaned), nil
}

// relocateAddons moves the conventional on-device add-ons path to the staging root.
func relocateAddons(ctx context.Context, staging *StagingTree) error {
	source := filepath.Join(staging.ScratchDir(), filepath.FromSlash(deviceAddonsPath))

	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", deviceAddonsPath, ErrAddonsMissing)
	}

	if err = os.Rename(source, staging.AddonsDir()); err != nil {
		return fmt.Errorf("relocate add-ons subtree: %w", err)
	}

	logger.DebugKV(ctx, "Relocated add-ons subtree", "from", deviceAddonsPath)

	return nil
}

// preserveLeftovers moves everything the payload shipped outside the add-ons
// path into the os-additions subtree and warns about it.
func preserveLeftovers(ctx context.Context, staging *StagingTree) error {
	scratch := staging.ScratchDir()

	if err := pruneEmptyDirs(scratch); err != nil {
		return err
	}

	entries, err := os.ReadDir(scratch)
	if err != nil {
		return fmt.Errorf("scan scratch area: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	if err = staging.Ensure(staging.OSAdditionsDir()); err != nil {
		return fmt.Errorf("create os-additions subtree: %w", err)
	}

	for _, entry := range entries {
		target := filepath.Join(staging.OSAdditionsDir(), entry.Name())
		if err = os.Rename(filepath.Join(scratch, entry.Name()), target); err != nil {
			return fmt.Errorf("preserve %s: %w", entry.Name(), err)
		}

		logger.WarnKV(ctx, "Payload carries content outside the add-ons path, preserving it",
			"entry", entry.Name(), "preserved_under", OSAdditionsDirName)
	}

	return nil
}

// pruneEmptyDirs removes directory chains left empty after the relocation.
func pruneEmptyDirs(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		child := filepath.Join(root, entry.Name())
		if err = pruneEmptyDirs(child); err != nil {
			return err
		}

		remaining, err := os.ReadDir(child)
		if err != nil {
			return err
		}

		if len(remaining) == 0 {
			if err = os.Remove(child); err != nil {
				return err
			}
		}
	}

	return nil
}
