package bundler

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/oshokin/reader-bundler/internal/config"
	domain "github.com/oshokin/reader-bundler/internal/domain/release"
	"github.com/oshokin/reader-bundler/internal/logger"
)

// AssembleArtifacts produces the two distributable packages from the fully
// merged staging tree and returns the release description.
//
// The app-only zip holds the add-ons subtree alone. The bundle zip holds the
// add-ons subtree plus the firmware directory with a freshly packed recovery
// tarball, which the device applies on next boot.
func AssembleArtifacts(
	ctx context.Context,
	cfg *config.Config,
	staging *StagingTree,
	version string,
) (*domain.Release, error) {
	appOnlyName := fmt.Sprintf("%s-%s.zip", cfg.AppName, version)
	bundleName := fmt.Sprintf("%s-bundle-%s.zip", cfg.AppName, version)

	appOnlyPath := filepath.Join(cfg.OutputDir, appOnlyName)
	if err := zipSubtrees(appOnlyPath, map[string]string{
		AddonsDirName: staging.AddonsDir(),
	}); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", appOnlyName, err)
	}

	logger.InfoKV(ctx, "Assembled manual-install package", "artifact", appOnlyName)

	if err := packFirmwareTarball(ctx, staging); err != nil {
		return nil, fmt.Errorf("pack firmware tarball: %w", err)
	}

	bundlePath := filepath.Join(cfg.OutputDir, bundleName)
	if err := zipSubtrees(bundlePath, map[string]string{
		AddonsDirName:   staging.AddonsDir(),
		FirmwareDirName: staging.FirmwareDir(),
	}); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", bundleName, err)
	}

	logger.InfoKV(ctx, "Assembled firmware-ready bundle", "artifact", bundleName)

	appOnly, err := describeArtifact(domain.KindAppOnly, appOnlyPath)
	if err != nil {
		return nil, err
	}

	bundle, err := describeArtifact(domain.KindBundle, bundlePath)
	if err != nil {
		return nil, err
	}

	return &domain.Release{
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Artifacts: []domain.Artifact{*appOnly, *bundle},
	}, nil
}

// packFirmwareTarball repacks the add-ons subtree (plus any preserved
// OS-level additions) into the recovery tarball under the firmware directory.
// Entries are re-rooted at the on-device paths so extraction on the device
// lands everything in place.
func packFirmwareTarball(ctx context.Context, staging *StagingTree) error {
	if err := staging.Ensure(staging.FirmwareDir()); err != nil {
		return err
	}

	tarballPath := filepath.Join(staging.FirmwareDir(), FirmwareTarballName)

	file, err := os.OpenFile(filepath.Clean(tarballPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return err
	}

	gz := gzip.NewWriter(file)
	writer := tar.NewWriter(gz)

	err = tarSubtree(writer, staging.AddonsDir(), deviceAddonsPath)

	if err == nil {
		if _, statErr := os.Stat(staging.OSAdditionsDir()); statErr == nil {
			logger.Warn(ctx, "Including preserved OS-level additions in the firmware tarball")

			err = tarSubtree(writer, staging.OSAdditionsDir(), "")
		}
	}

	if err != nil {
		_ = writer.Close()
		_ = gz.Close()
		_ = file.Close()

		return err
	}

	if err = writer.Close(); err != nil {
		return err
	}

	if err = gz.Close(); err != nil {
		return err
	}

	return file.Close()
}

// tarSubtree appends every regular file under sourceDir to the tar stream,
// prefixing entry names with the given root. Empty directories get explicit
// headers so they survive the round trip onto the device.
func tarSubtree(writer *tar.Writer, sourceDir, root string) error {
	return filepath.WalkDir(sourceDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, filePath)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			empty, dirErr := isEmptyDir(filePath)
			if dirErr != nil || !empty || filePath == sourceDir {
				return dirErr
			}

			return writer.WriteHeader(&tar.Header{
				Name:     path.Join(root, filepath.ToSlash(rel)) + "/",
				Mode:     int64(DefaultFileMode),
				ModTime:  time.Unix(0, 0).UTC(),
				Typeflag: tar.TypeDir,
			})
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		header := &tar.Header{
			Name: path.Join(root, filepath.ToSlash(rel)),
			Mode: int64(info.Mode().Perm()),
			Size: info.Size(),
			// Fixed timestamp keeps repeated runs byte-comparable.
			ModTime:  time.Unix(0, 0).UTC(),
			Typeflag: tar.TypeReg,
		}

		if err = writer.WriteHeader(header); err != nil {
			return err
		}

		file, err := os.Open(filepath.Clean(filePath))
		if err != nil {
			return err
		}

		if _, err = io.Copy(writer, file); err != nil {
			_ = file.Close()

			return err
		}

		return file.Close()
	})
}

// zipSubtrees writes the given subtrees into a zip archive. Map keys become
// the top-level directory names inside the archive, so the internal layout
// always matches the device conventions regardless of host paths.
func zipSubtrees(destPath string, subtrees map[string]string) error {
	file, err := os.OpenFile(filepath.Clean(destPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFileMode)
	if err != nil {
		return err
	}

	writer := zip.NewWriter(file)

	// Deterministic member order: add-ons first, then the firmware directory.
	for _, root := range []string{AddonsDirName, FirmwareDirName} {
		sourceDir, ok := subtrees[root]
		if !ok {
			continue
		}

		if err = zipSubtree(writer, sourceDir, root); err != nil {
			_ = writer.Close()
			_ = file.Close()

			return err
		}
	}

	if err = writer.Close(); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// zipSubtree appends every regular file under sourceDir to the zip stream.
// Empty directories get explicit entries, matching the tarball layout.
func zipSubtree(writer *zip.Writer, sourceDir, root string) error {
	return filepath.WalkDir(sourceDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, filePath)
		if err != nil {
			return err
		}

		if entry.IsDir() {
			empty, dirErr := isEmptyDir(filePath)
			if dirErr != nil || !empty || filePath == sourceDir {
				return dirErr
			}

			_, dirErr = writer.Create(path.Join(root, filepath.ToSlash(rel)) + "/")

			return dirErr
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		member, err := writer.Create(path.Join(root, filepath.ToSlash(rel)))
		if err != nil {
			return err
		}

		file, err := os.Open(filepath.Clean(filePath))
		if err != nil {
			return err
		}

		if _, err = io.Copy(member, file); err != nil {
			_ = file.Close()

			return err
		}

		return file.Close()
	})
}

// isEmptyDir reports whether the directory has no entries.
func isEmptyDir(dir string) (bool, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}

	return len(children) == 0, nil
}

// describeArtifact computes size and digest for a written artifact.
func describeArtifact(kind domain.ArtifactKind, artifactPath string) (*domain.Artifact, error) {
	file, err := os.Open(filepath.Clean(artifactPath))
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	dgst, err := digest.FromReader(file)
	if err != nil {
		return nil, fmt.Errorf("digest artifact: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}

	return &domain.Artifact{
		Kind:     kind,
		Filename: filepath.Base(artifactPath),
		Size:     info.Size(),
		Digest:   dgst,
	}, nil
}
