package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oshokin/reader-bundler/internal/logger"
)

// StagingTree is the scratch filesystem area owned by a single run.
//
// It is created under the output directory with a unique suffix so that a
// crashed run never collides with the next one, and is removed on every exit
// path unless the run asked to keep it.
type StagingTree struct {
	// Root is the absolute path of the staging directory.
	Root string
	// id is the unique run identity baked into the directory name.
	id string
	// keep disables removal on release for debugging.
	keep bool
	// released guards against use after removal.
	released bool
}

// NewStagingTree creates an empty staging tree under baseDir.
func NewStagingTree(ctx context.Context, baseDir string) (*StagingTree, error) {
	id := uuid.NewString()
	root := filepath.Join(baseDir, stagingPrefix+id)

	if err := os.MkdirAll(root, DefaultFileMode); err != nil {
		return nil, fmt.Errorf("create staging tree: %w", err)
	}

	logger.DebugKV(ctx, "Created staging tree", "root", root)

	return &StagingTree{
		Root: root,
		id:   id,
	}, nil
}

// AddonsDir is where the relocated add-ons subtree lives.
func (s *StagingTree) AddonsDir() string {
	return filepath.Join(s.Root, AddonsDirName)
}

// OSAdditionsDir holds payload content preserved from outside the add-ons path.
func (s *StagingTree) OSAdditionsDir() string {
	return filepath.Join(s.Root, OSAdditionsDirName)
}

// FirmwareDir is where the re-packed firmware tarball is placed before zipping.
func (s *StagingTree) FirmwareDir() string {
	return filepath.Join(s.Root, FirmwareDirName)
}

// ScratchDir is the transient area the payload is unpacked into.
func (s *StagingTree) ScratchDir() string {
	return filepath.Join(s.Root, "scratch")
}

// Keep disables removal on release so the tree can be inspected.
func (s *StagingTree) Keep() {
	s.keep = true
}

// Ensure creates a subdirectory of the tree if it does not exist yet.
func (s *StagingTree) Ensure(dir string) error {
	if s.released {
		return errStagingReleased
	}

	return os.MkdirAll(dir, DefaultFileMode)
}

// Release removes the staging tree. It is safe to call more than once and is
// meant to run deferred so cleanup happens on success and failure alike.
func (s *StagingTree) Release(ctx context.Context) {
	if s.released {
		return
	}

	s.released = true

	if s.keep {
		logger.InfoKV(ctx, "Keeping staging tree for inspection", "root", s.Root)
		return
	}

	if err := os.RemoveAll(s.Root); err != nil {
		logger.WarnKV(ctx, "Unable to remove staging tree", "root", s.Root, "error", err)
		return
	}

	logger.DebugKV(ctx, "Removed staging tree", "root", s.Root)
}
