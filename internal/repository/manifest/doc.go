// Package manifest persists the release manifest produced by a bundling run.
//
// The manifest is stored as YAML next to the artifacts and records the
// resolved version together with the filename, size and sha256 digest of
// every package, so publishing tooling can verify uploads.
package manifest
