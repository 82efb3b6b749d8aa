package bundler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/reader-bundler/internal/logger"
)

// isBundlerRunningNow checks presence of a run marker in the output directory
// and attempts recovery if it looks stale.
func isBundlerRunningNow(ctx context.Context, outputDir string) bool {
	markerPath := filepath.Join(outputDir, MarkerFilename)

	fileInfo, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, checking for a live bundler process")

		if peerBundlerProcessExists(ctx) {
			return true
		}

		if err = os.Remove(markerPath); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// peerBundlerProcessExists reports whether another bundler process is alive.
func peerBundlerProcessExists(ctx context.Context) bool {
	processList, err := ps.Processes()
	if err != nil {
		logger.Warnf(ctx, "Unable to list processes: %v", err)
		// Assume the worst when the process table is unreadable.
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == bundlerExecutable() {
			return true
		}
	}

	return false
}

// acquireRunMarker writes the marker and returns a release function.
func acquireRunMarker(ctx context.Context, outputDir string) (func(), error) {
	if isBundlerRunningNow(ctx, outputDir) {
		return nil, ErrBundlerAlreadyRunning
	}

	markerPath := filepath.Join(outputDir, MarkerFilename)

	marker, err := os.Create(filepath.Clean(markerPath))
	if err != nil {
		return nil, err
	}

	if err = marker.Close(); err != nil {
		return nil, err
	}

	return func() {
		if _, statErr := os.Stat(markerPath); statErr == nil {
			_ = os.Remove(markerPath)
		}
	}, nil
}
