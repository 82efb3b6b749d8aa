package bundler

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/oshokin/reader-bundler/internal/config"
	domain "github.com/oshokin/reader-bundler/internal/domain/release"
	"github.com/oshokin/reader-bundler/internal/logger"
	"github.com/oshokin/reader-bundler/internal/repository/manifest"
)

// pipeline holds the mutable state for a single bundling run.
// Callers go through Run(ctx, Options).
type pipeline struct {
	// cfg is the validated bundling configuration.
	cfg *config.Config
	// state is the current pipeline stage.
	state State
	// staging is the scratch tree owned by this run.
	staging *StagingTree
	// release describes the produced artifacts once assembly succeeds.
	release *domain.Release
}

// newPipeline creates a pipeline in the start state.
func newPipeline(cfg *config.Config) *pipeline {
	return &pipeline{
		cfg:   cfg,
		state: StateStart,
	}
}

// run executes the whole Located → Extracted → Merged → Versioned → Assembled
// → CleanedUp chain. Failure in any stage aborts the run; the staging tree is
// released on every exit path.
func (p *pipeline) run(ctx context.Context, archivePath string) (err error) {
	releaseMarker, err := acquireRunMarker(ctx, p.cfg.OutputDir)
	if err != nil {
		return err
	}

	defer releaseMarker()

	p.staging, err = NewStagingTree(ctx, p.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("create staging tree: %w", err)
	}

	if p.cfg.KeepStaging {
		p.staging.Keep()
	}

	// Cleanup runs on success and failure alike.
	defer func() {
		p.staging.Release(ctx)

		if err != nil {
			_ = p.transition(ctx, StateAborted)
		}
	}()

	if err = p.runStages(ctx, archivePath); err != nil {
		return err
	}

	return p.transition(ctx, StateCleanedUp)
}

// runStages walks the linear stage chain up to assembly.
func (p *pipeline) runStages(ctx context.Context, archivePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	archive, err := ClassifyArchive(ctx, archivePath)
	if err != nil {
		return err
	}

	payloadPath, err := archive.LocatePayload(ctx, p.staging.Root)
	if err != nil {
		return err
	}

	if err = p.transition(ctx, StateLocated); err != nil {
		return err
	}

	if err = ExtractPayload(ctx, payloadPath, p.staging); err != nil {
		return err
	}

	if err = p.transition(ctx, StateExtracted); err != nil {
		return err
	}

	if err = MergeDist(ctx, p.cfg, p.staging); err != nil {
		return err
	}

	if err = p.transition(ctx, StateMerged); err != nil {
		return err
	}

	version, err := ResolveVersion(ctx, p.cfg)
	if err != nil {
		return err
	}

	if err = p.transition(ctx, StateVersioned); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	p.release, err = AssembleArtifacts(ctx, p.cfg, p.staging, version)
	if err != nil {
		return err
	}

	if err = p.saveManifest(ctx, version); err != nil {
		return err
	}

	return p.transition(ctx, StateAssembled)
}

// saveManifest persists the release manifest next to the artifacts.
func (p *pipeline) saveManifest(ctx context.Context, version string) error {
	manifestName := fmt.Sprintf("%s-release-%s.yaml", p.cfg.AppName, version)
	repo := manifest.NewFileRepository(filepath.Join(p.cfg.OutputDir, manifestName))

	if err := repo.Save(ctx, p.release); err != nil {
		return fmt.Errorf("save release manifest: %w", err)
	}

	logger.InfoKV(ctx, "Saved release manifest", "path", manifestName)

	return nil
}

// printNextSteps logs human-readable guidance for the produced artifacts.
func (p *pipeline) printNextSteps(ctx context.Context) {
	if p.release == nil {
		return
	}

	if appOnly := p.release.ArtifactByKind(domain.KindAppOnly); appOnly != nil {
		logger.InfoKV(ctx, "Manual install: copy the add-ons tree from the package onto the device",
			"artifact", appOnly.Filename, "digest", appOnly.Digest.String())
	}

	if bundle := p.release.ArtifactByKind(domain.KindBundle); bundle != nil {
		logger.InfoKV(ctx, "Firmware install: unpack the bundle onto the device and reboot",
			"artifact", bundle.Filename, "digest", bundle.Digest.String())
	}
}
