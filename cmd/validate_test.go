package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateArgumentsPromptSource(t *testing.T) {
	err := validateArguments("", "", "", "", "", "", 1)
	assert.ErrorContains(t, err, "Must provide either --prompt or --file")

	err = validateArguments("a fox", "prompt.txt", "", "", "", "", 1)
	assert.ErrorContains(t, err, "Cannot specify both --prompt and --file")

	assert.NoError(t, validateArguments("a fox", "", "", "", "", "", 1))
}

func TestValidateArgumentsVariations(t *testing.T) {
	assert.ErrorContains(t, validateArguments("p", "", "", "", "", "", 0), "Variations must be between 1 and 4")
	assert.ErrorContains(t, validateArguments("p", "", "", "", "", "", 5), "Variations must be between 1 and 4")
	assert.NoError(t, validateArguments("p", "", "", "", "", "", 4))
}

func TestValidateArgumentsVocabularies(t *testing.T) {
	assert.ErrorContains(t, validateArguments("p", "", "ultra", "", "", "", 1), "Invalid quality level")
	assert.NoError(t, validateArguments("p", "", "medium", "", "", "", 1))

	assert.ErrorContains(t, validateArguments("p", "", "", "8K", "", "", 1), "Invalid resolution")
	assert.NoError(t, validateArguments("p", "", "", "4K", "", "", 1))

	assert.ErrorContains(t, validateArguments("p", "", "", "", "21:9", "", 1), "Invalid aspect ratio")
	assert.NoError(t, validateArguments("p", "", "", "", "16:9", "", 1))

	assert.ErrorContains(t, validateArguments("p", "", "", "", "", "maximum", 1), "Invalid fidelity")
	assert.NoError(t, validateArguments("p", "", "", "", "", "high", 1))
}

func TestLoadPromptFromFlag(t *testing.T) {
	got, err := loadPrompt("a fox", "")
	require.NoError(t, err)
	assert.Equal(t, "a fox", got)
}

func TestLoadPromptFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  a fox in the snow\n"), 0o644))

	got, err := loadPrompt("", path)
	require.NoError(t, err)
	assert.Equal(t, "a fox in the snow", got)
}

func TestLoadPromptFileErrors(t *testing.T) {
	_, err := loadPrompt("", filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "Prompt file not found")

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = loadPrompt("", empty)
	assert.ErrorContains(t, err, "Prompt file is empty")
}

func TestLoadReferencesPositional(t *testing.T) {
	got, err := loadReferences([]string{"a.png", "b.png"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got)
}

func TestLoadReferencesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.txt")
	require.NoError(t, os.WriteFile(path, []byte("a.png\n\n# a comment\nb.png\n"), 0o644))

	got, err := loadReferences(nil, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, got)
}

func TestLoadReferencesConflicts(t *testing.T) {
	_, err := loadReferences([]string{"a.png"}, "refs.txt")
	assert.ErrorContains(t, err, "Cannot specify both positional reference images and --references file")

	_, err = loadReferences(nil, filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorContains(t, err, "References file not found")

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# only comments\n"), 0o644))
	_, err = loadReferences(nil, empty)
	assert.ErrorContains(t, err, "References file is empty")
}
