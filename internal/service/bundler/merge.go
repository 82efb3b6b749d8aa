package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oshokin/reader-bundler/internal/config"
	"github.com/oshokin/reader-bundler/internal/logger"
)

// MergeDist grafts the prebuilt application distribution and the contributed
// menu fragments into the add-ons subtree. Destination files are always
// overwritten by name; there is no diffing.
func MergeDist(ctx context.Context, cfg *config.Config, staging *StagingTree) error {
	if err := ensureDistBuilt(ctx, cfg); err != nil {
		return err
	}

	appDir := filepath.Join(staging.AddonsDir(), cfg.AppName)
	if err := copyTree(cfg.DistDir, appDir); err != nil {
		return fmt.Errorf("merge distribution: %w", err)
	}

	logger.InfoKV(ctx, "Merged application distribution", "from", cfg.DistDir, "into", appDir)

	return mergeFragments(ctx, cfg, staging)
}

// ensureDistBuilt triggers the external build command exactly once when the
// distribution is absent, and fails requesting the build when it cannot run.
func ensureDistBuilt(ctx context.Context, cfg *config.Config) error {
	if distExists(cfg.DistDir) {
		return nil
	}

	if strings.TrimSpace(cfg.BuildCommand) == "" {
		return fmt.Errorf("%s: %w: %w", cfg.DistDir, ErrDistMissing, ErrBuildCommandMissing)
	}

	logger.InfoKV(ctx, "Distribution is absent, invoking external build", "command", cfg.BuildCommand)

	if err := runBuildCommand(ctx, cfg); err != nil {
		return fmt.Errorf("external build: %w", err)
	}

	if !distExists(cfg.DistDir) {
		return fmt.Errorf("%s still absent after build: %w", cfg.DistDir, ErrDistMissing)
	}

	return nil
}

// distExists reports whether the distribution directory is present.
func distExists(distDir string) bool {
	info, err := os.Stat(distDir)

	return err == nil && info.IsDir()
}

// runBuildCommand executes the configured build command with a bounded context.
func runBuildCommand(ctx context.Context, cfg *config.Config) error {
	fields := strings.Fields(cfg.BuildCommand)

	cmdCtx, cancel := context.WithTimeout(ctx, cfg.BuildTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, fields[0], fields[1:]...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
	}

	return nil
}

// mergeFragments copies every contributed fragment file into the
// menu-injector configuration directory inside the add-ons subtree.
func mergeFragments(ctx context.Context, cfg *config.Config, staging *StagingTree) error {
	entries, err := os.ReadDir(cfg.FragmentsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "No contributed fragments directory, skipping", "path", cfg.FragmentsDir)
			return nil
		}

		return fmt.Errorf("scan fragments: %w", err)
	}

	fragmentDir := filepath.Join(staging.AddonsDir(), MenuFragmentDirName)
	if err = staging.Ensure(fragmentDir); err != nil {
		return fmt.Errorf("create fragment directory: %w", err)
	}

	copied := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		source := filepath.Join(cfg.FragmentsDir, entry.Name())
		if err = copyFile(source, filepath.Join(fragmentDir, entry.Name())); err != nil {
			return fmt.Errorf("merge fragment %s: %w", entry.Name(), err)
		}

		copied++
	}

	logger.InfoKV(ctx, "Merged contributed menu fragments", "count", copied)

	return nil
}

// copyTree copies a directory tree, overwriting destination files by name.
func copyTree(sourceDir, destDir string) error {
	return filepath.WalkDir(sourceDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, rel)

		if entry.IsDir() {
			return os.MkdirAll(target, DefaultFileMode)
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		return copyFile(path, target)
	})
}

// copyFile copies a single file, preserving its permission bits.
func copyFile(sourcePath, destPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}

	source, err := os.Open(filepath.Clean(sourcePath))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	if err = os.MkdirAll(filepath.Dir(destPath), DefaultFileMode); err != nil {
		return err
	}

	dest, err := os.OpenFile(filepath.Clean(destPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(dest, source); err != nil {
		_ = dest.Close()

		return err
	}

	return dest.Close()
}
