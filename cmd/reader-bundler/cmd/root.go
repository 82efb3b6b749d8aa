package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/reader-bundler/internal/config"
	"github.com/oshokin/reader-bundler/internal/logger"
	"github.com/oshokin/reader-bundler/internal/service/bundler"
	"github.com/oshokin/reader-bundler/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// distDir overrides the configured distribution directory.
	distDir string

	// outputDir overrides the configured output directory.
	outputDir string

	// appVersion overrides version resolution from the distribution metadata.
	appVersion string

	// keepStaging leaves the staging tree behind for inspection.
	keepStaging bool

	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command producing the release packages.
	rootCmd = &cobra.Command{
		Use:   "reader-bundler [menu-injector-archive]",
		Short: "Bundle the reader distribution into installable update packages",
		Long: "Merge the prebuilt reader distribution with a menu-injector archive " +
			"(gzip tarball or zip container) and produce a manual add-ons package " +
			"plus a firmware-ready bundle applied by the device recovery on reboot.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &bundler.Options{
				ConfigPath:  configPath,
				ArchivePath: args[0],
				DistDir:     distDir,
				OutputDir:   outputDir,
				AppVersion:  appVersion,
				KeepStaging: keepStaging,
			}

			return bundler.Run(ctx, options)
		},
	}
)

// Execute runs the reader-bundler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&distDir, "dist", "", "path to the prebuilt application distribution")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory receiving the artifacts")
	rootCmd.Flags().StringVar(&appVersion, "app-version", "", "override the application version")
	rootCmd.Flags().BoolVar(&keepStaging, "keep-staging", false, "keep the staging tree for inspection")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
