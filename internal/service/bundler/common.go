package bundler

import (
	"os"
	"path"
	"runtime"
	"strings"
	"time"
)

const (
	// AddonsDirName is the device's conventional directory for user-installed programs.
	AddonsDirName = "add-ons"

	// OSAdditionsDirName holds payload content found outside the add-ons path.
	// It exists only transiently inside the staging tree.
	OSAdditionsDirName = "os-additions"

	// MenuFragmentDirName is the menu-injector configuration directory inside the add-ons tree.
	MenuFragmentDirName = "menu-fragment"

	// FirmwareDirName is the directory the device recovery scans on boot.
	FirmwareDirName = ".firmware"

	// FirmwareTarballName is the payload filename the recovery auto-applies.
	FirmwareTarballName = "firmware-update.tgz"

	// VersionMetadataFilename is the build metadata file inside the distribution.
	VersionMetadataFilename = "VERSION"

	// MarkerFilename marks that a bundler run owns the output directory right now.
	MarkerFilename = "reader-bundler-marker.bin"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// stagingPrefix names the per-run staging tree inside the output directory.
	stagingPrefix = ".staging-"

	// baseBundlerExecutable is the bundler binary name without platform extension.
	baseBundlerExecutable = "reader-bundler"

	// markerLifetime is the period after which a stale run marker is ignored.
	markerLifetime = 30 * time.Second
)

// deviceAddonsPath is where the add-ons tree lives inside the firmware
// payload, relative to the device root. Tar entries use forward slashes.
var deviceAddonsPath = path.Join("mnt", "onboard", AddonsDirName)

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

func bundlerExecutable() string {
	return baseBundlerExecutable + getExecutableExtension()
}
