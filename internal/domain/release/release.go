package release

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// ArtifactKind distinguishes the two distributable package flavors.
type ArtifactKind string

const (
	// KindAppOnly is the manual-install package holding the add-ons tree alone.
	KindAppOnly ArtifactKind = "app-only"
	// KindBundle is the firmware-ready package the device recovery auto-applies.
	KindBundle ArtifactKind = "bundle"
)

// Artifact describes one distributable package produced by a bundling run.
type Artifact struct {
	// Kind tells whether this is the manual package or the firmware bundle.
	Kind ArtifactKind
	// Filename is the artifact name inside the output directory.
	Filename string
	// Size is the artifact size in bytes.
	Size int64
	// Digest is the sha256 digest of the artifact contents.
	Digest digest.Digest
}

// Clone returns a copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Release describes the outcome of one successful bundling run.
type Release struct {
	// Version is the application version stamped into every artifact name.
	Version string
	// CreatedAt is when the artifacts were assembled.
	CreatedAt time.Time
	// Artifacts lists the packages written to the output directory.
	Artifacts []Artifact
}

// ArtifactByKind returns the artifact of the requested kind, or nil.
func (r *Release) ArtifactByKind(kind ArtifactKind) *Artifact {
	for i := range r.Artifacts {
		if r.Artifacts[i].Kind == kind {
			return &r.Artifacts[i]
		}
	}

	return nil
}

// Clone returns a copy of the release to avoid leaking internal references.
func (r *Release) Clone() *Release {
	cloned := &Release{
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		Artifacts: make([]Artifact, len(r.Artifacts)),
	}

	copy(cloned.Artifacts, r.Artifacts)

	return cloned
}
