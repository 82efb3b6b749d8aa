package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/reader-bundler/internal/config"
	domain "github.com/oshokin/reader-bundler/internal/domain/release"
)

// Repository defines persistence operations for the release manifest.
type Repository interface {
	Load(ctx context.Context) (*domain.Release, error)
	Save(ctx context.Context, release *domain.Release) error
}

// FileRepository persists the release manifest to a YAML file on disk.
// The manifest records which artifacts a run produced and their digests, so
// publishing tooling can verify uploads without re-reading the archives.
type FileRepository struct {
	// path is the filesystem location of the YAML manifest file.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// ErrNotFound is returned when the manifest file does not exist yet.
var ErrNotFound = errors.New("release manifest not found")

// fileManifest is the YAML representation of a release.
type fileManifest struct {
	Version   string         `yaml:"version"`
	CreatedAt time.Time      `yaml:"created_at"`
	Artifacts []fileArtifact `yaml:"artifacts"`
}

// fileArtifact is the YAML representation of a single artifact.
type fileArtifact struct {
	Kind     string `yaml:"kind"`
	Filename string `yaml:"filename"`
	Size     int64  `yaml:"size"`
	Digest   string `yaml:"digest"`
}

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*domain.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	var fm fileManifest
	if err = yaml.Unmarshal(contents, &fm); err != nil {
		return nil, fmt.Errorf("decode manifest file: %w", err)
	}

	return fromFile(&fm), nil
}

// Save writes the manifest to disk in YAML representation.
func (r *FileRepository) Save(_ context.Context, rel *domain.Release) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(toFile(rel))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write manifest file: %w", err)
	}

	return nil
}

// fromFile converts the YAML representation into the domain Release model.
func fromFile(fm *fileManifest) *domain.Release {
	artifacts := make([]domain.Artifact, 0, len(fm.Artifacts))
	for _, a := range fm.Artifacts {
		artifacts = append(artifacts, domain.Artifact{
			Kind:     domain.ArtifactKind(a.Kind),
			Filename: a.Filename,
			Size:     a.Size,
			Digest:   digest.Digest(a.Digest),
		})
	}

	return &domain.Release{
		Version:   fm.Version,
		CreatedAt: fm.CreatedAt,
		Artifacts: artifacts,
	}
}

// toFile converts the domain Release model into its YAML representation.
func toFile(rel *domain.Release) *fileManifest {
	artifacts := make([]fileArtifact, 0, len(rel.Artifacts))
	for _, a := range rel.Artifacts {
		artifacts = append(artifacts, fileArtifact{
			Kind:     string(a.Kind),
			Filename: a.Filename,
			Size:     a.Size,
			Digest:   a.Digest.String(),
		})
	}

	return &fileManifest{
		Version:   rel.Version,
		CreatedAt: rel.CreatedAt,
		Artifacts: artifacts,
	}
}
