package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/reader-bundler/internal/domain/release"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	r, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, r)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns an equal release.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()
	file := filepath.Join(t.TempDir(), "reader-release-1.2.0.yaml")
	repo := NewFileRepository(file)

	ts := time.Now().UTC().Truncate(time.Second)
	want := &domain.Release{
		Version:   "1.2.0",
		CreatedAt: ts,
		Artifacts: []domain.Artifact{
			{
				Kind:     domain.KindAppOnly,
				Filename: "reader-1.2.0.zip",
				Size:     1024,
				Digest:   digest.FromString("reader-1.2.0.zip"),
			},
			{
				Kind:     domain.KindBundle,
				Filename: "reader-bundle-1.2.0.zip",
				Size:     2048,
				Digest:   digest.FromString("reader-bundle-1.2.0.zip"),
			},
		},
	}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want.Version, got.Version)
	require.Equal(t, want.CreatedAt.Unix(), got.CreatedAt.Unix())
	require.Equal(t, want.Artifacts, got.Artifacts)

	_, err = os.Stat(file)
	require.NoError(t, err)
}
