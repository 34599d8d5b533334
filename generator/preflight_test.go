package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenamesZeroPadded(t *testing.T) {
	got := Filenames("sunset", 3)
	assert.Equal(t, []string{"sunset_001.png", "sunset_002.png", "sunset_003.png"}, got)

	assert.Empty(t, Filenames("sunset", 0))
}

func TestCheckCollisions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sunset_002.png"), []byte("x"), 0o644))

	collisions := CheckCollisions(dir, Filenames("sunset", 3))
	assert.Equal(t, []string{"sunset_002.png"}, collisions)
}

func TestCheckCollisionsReadOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sunset_001.png"), []byte("x"), 0o644))

	first := CheckCollisions(dir, Filenames("sunset", 2))
	second := CheckCollisions(dir, Filenames("sunset", 2))
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCheckCollisionsMissingDir(t *testing.T) {
	collisions := CheckCollisions(filepath.Join(t.TempDir(), "nope"), Filenames("sunset", 2))
	assert.Empty(t, collisions)
}

func TestCollisionErrorMessage(t *testing.T) {
	err := &CollisionError{Dir: "out", Files: []string{"a_001.png", "a_002.png"}}
	msg := err.Error()
	assert.Contains(t, msg, "a_001.png")
	assert.Contains(t, msg, "a_002.png")
	assert.Contains(t, msg, "No API calls were made (no charges incurred).")
}
