package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExportFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.JSON"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := findExportFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestLoadRun(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "valid.json")
	require.NoError(t, os.WriteFile(valid, []byte(`{"id":"0190f3c2-6d3e-7a3b-9c1d-2f4e5a6b7c8d","task":"t","gate":{"decision":"accepted"}}`), 0o644))
	run, err := loadRun(valid)
	require.NoError(t, err)
	assert.Equal(t, "t", run.Task)

	badID := filepath.Join(dir, "bad-id.json")
	require.NoError(t, os.WriteFile(badID, []byte(`{"id":"nope","gate":{"decision":"accepted"}}`), 0o644))
	_, err = loadRun(badID)
	assert.Error(t, err)

	noGate := filepath.Join(dir, "no-gate.json")
	require.NoError(t, os.WriteFile(noGate, []byte(`{"id":"0190f3c2-6d3e-7a3b-9c1d-2f4e5a6b7c8d"}`), 0o644))
	_, err = loadRun(noGate)
	assert.Error(t, err)

	_, err = loadRun(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
