// Package release contains core domain types for the bundling business logic.
//
// It defines Artifact (one distributable package with its digest) and
// Release (the outcome of a bundling run) with Clone helpers to avoid
// leaking internal references.
package release
