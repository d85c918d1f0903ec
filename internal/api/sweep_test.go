package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweepReports(t *testing.T) {
	dir := t.TempDir()
	h := &Handler{ReportDir: dir, Log: zerolog.Nop()}
	now := time.Now()

	oldReport := filepath.Join(dir, "7f1c2b9e-3a4d-4e5f-8a6b-1c2d3e4f5a6b.xlsx")
	freshReport := filepath.Join(dir, "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e.xlsx")
	oldUpload := filepath.Join(dir, "uploads", "a.pdf")
	unrelated := filepath.Join(dir, "notes.txt")

	touch(t, oldReport, now.Add(-2*time.Hour))
	touch(t, freshReport, now.Add(-time.Minute))
	touch(t, oldUpload, now.Add(-2*time.Hour))
	touch(t, unrelated, now.Add(-48*time.Hour))

	n, err := h.SweepReports(now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoFileExists(t, oldReport)
	assert.NoFileExists(t, oldUpload)
	assert.FileExists(t, freshReport)
	assert.FileExists(t, unrelated)
}

func TestSweepReports_MissingDir(t *testing.T) {
	h := &Handler{ReportDir: filepath.Join(t.TempDir(), "never-created")}

	n, err := h.SweepReports(time.Now(), time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
