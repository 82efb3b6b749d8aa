package bundler

import (
	"context"
	"fmt"

	"github.com/oshokin/reader-bundler/internal/config"
	"github.com/oshokin/reader-bundler/internal/logger"
)

// Options contains inputs for the bundler entry point.
type Options struct {
	// ConfigPath is an optional path to bundler settings (defaults to reader-bundler-settings.yaml).
	ConfigPath string
	// ArchivePath is the menu-injector archive supplied on the command line.
	ArchivePath string
	// DistDir overrides the configured distribution directory when non-empty.
	DistDir string
	// OutputDir overrides the configured output directory when non-empty.
	OutputDir string
	// AppVersion overrides version resolution from the distribution metadata.
	AppVersion string
	// KeepStaging leaves the staging tree behind for inspection.
	KeepStaging bool
}

// Run executes the bundling workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "reader-bundler")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.DistDir != "" {
		cfg.DistDir = opts.DistDir
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	cfg.AppVersion = opts.AppVersion
	cfg.KeepStaging = opts.KeepStaging

	if err = config.Validate(cfg); err != nil {
		return err
	}

	p := newPipeline(cfg)

	if err = p.run(ctx, opts.ArchivePath); err != nil {
		return fmt.Errorf("bundling failed: %w", err)
	}

	p.printNextSteps(ctx)

	logger.Info(ctx, "Bundler completed successfully")

	return nil
}
