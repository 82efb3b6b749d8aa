package bundler

import "errors"

var (
	// ErrArchiveFormat is returned when the input is neither a valid gzip
	// tarball nor a zip container holding the firmware payload member.
	ErrArchiveFormat = errors.New("archive is neither a gzip tarball nor a zip container with a firmware payload")

	// ErrAddonsMissing is returned when the unpacked payload carries no
	// add-ons directory at the conventional on-device path.
	ErrAddonsMissing = errors.New("payload carries no add-ons directory")

	// ErrVersionUnresolved is returned when no valid application version can
	// be derived from the flag override or the distribution metadata.
	ErrVersionUnresolved = errors.New("application version could not be resolved")

	// ErrDistMissing is returned when the application distribution does not
	// exist and could not be produced by the external build command.
	ErrDistMissing = errors.New("application distribution is missing")

	// ErrBuildCommandMissing is returned when the distribution is absent and
	// no external build command is configured.
	ErrBuildCommandMissing = errors.New("no build command configured to produce the distribution")

	// ErrBundlerAlreadyRunning is returned when another run owns the output directory.
	ErrBundlerAlreadyRunning = errors.New("another bundler run is active in this directory")

	// errUnsafeTarPath marks tar entries that would escape the staging tree.
	errUnsafeTarPath = errors.New("tar entry escapes the staging tree")

	// errStagingReleased marks use of a staging tree after its release.
	errStagingReleased = errors.New("staging tree already released")
)
