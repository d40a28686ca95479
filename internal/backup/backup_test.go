package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JULIANJUAREZMX01/nanobot-cloud/internal/config"
)

func TestArchiveWorkspace(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MEMORY.md"), []byte("# Notes\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "projects", "demo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects", "demo", "main.go"), []byte("package main\n"), 0644))

	data, err := ArchiveWorkspace(dir)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names["MEMORY.md"])
	assert.True(t, names["projects/demo/main.go"])
	assert.Len(t, zr.File, 2)

	// Contents survive the round trip.
	rc, err := zr.Open("MEMORY.md")
	require.NoError(t, err)
	defer rc.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(rc)
	require.NoError(t, err)
	assert.Equal(t, "# Notes\n", buf.String())
}

func TestArchiveWorkspaceEmpty(t *testing.T) {
	data, err := ArchiveWorkspace(t.TempDir())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}

func TestServiceDisabledWithoutConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Workspace.Path = t.TempDir()

	svc, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	// Start is a no-op; Run refuses to pretend it backed anything up.
	require.NoError(t, svc.Start(context.Background()))
	assert.ErrorIs(t, svc.Run(context.Background()), errBackupDisabled)
}
