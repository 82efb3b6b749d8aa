package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/oshokin/reader-bundler/internal/config"
	"github.com/oshokin/reader-bundler/internal/logger"
)

// ResolveVersion derives the release version used to name every artifact.
//
// The CLI override wins; otherwise the version is read from the build
// metadata file inside the distribution. An unresolved or malformed version
// aborts the run: an unversioned release must never be produced.
func ResolveVersion(ctx context.Context, cfg *config.Config) (string, error) {
	declared := strings.TrimSpace(cfg.AppVersion)
	source := "override"

	if declared == "" {
		metadataPath := filepath.Join(cfg.DistDir, VersionMetadataFilename)

		contents, err := os.ReadFile(filepath.Clean(metadataPath))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", metadataPath, ErrVersionUnresolved)
		}

		declared = strings.TrimSpace(string(contents))
		source = "metadata"
	}

	if declared == "" {
		return "", ErrVersionUnresolved
	}

	if !semver.IsValid(normalizeVersion(declared)) {
		return "", fmt.Errorf("%q is not a semantic version: %w", declared, ErrVersionUnresolved)
	}

	logger.InfoKV(ctx, "Resolved application version", "version", declared, "source", source)

	return declared, nil
}

// normalizeVersion adds the "v" prefix the semver package requires.
func normalizeVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}

	return "v" + v
}
