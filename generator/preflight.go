package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filenames returns the zero-padded sequential output names a request
// with the given slug and variation count will produce, e.g.
// imggen_001.png through imggen_004.png.
func Filenames(name string, variations int) []string {
	files := make([]string, 0, variations)
	for i := 1; i <= variations; i++ {
		files = append(files, fmt.Sprintf("%s_%03d.png", name, i))
	}
	return files
}

// CheckCollisions inspects outputDir for the given filenames and
// returns the ones that already exist. Read-only: it never creates,
// deletes or moves anything, so running it twice on an untouched
// directory yields the same verdict.
func CheckCollisions(outputDir string, filenames []string) []string {
	var collisions []string
	for _, filename := range filenames {
		if _, err := os.Stat(filepath.Join(outputDir, filename)); err == nil {
			collisions = append(collisions, filename)
		}
	}
	return collisions
}

// CollisionError reports output files that would be overwritten by a
// run. Raised before the first paid API call; a run that would
// clobber prior output must cost nothing.
type CollisionError struct {
	Dir   string
	Files []string
}

func (e *CollisionError) Error() string {
	lines := []string{"file collision detected", ""}
	lines = append(lines, fmt.Sprintf("The following files already exist in %s:", e.Dir))
	for _, f := range e.Files {
		lines = append(lines, "  - "+f)
	}
	lines = append(lines,
		"",
		"Please:",
		"  1. Delete or rename these files, OR",
		"  2. Use a different --output directory",
		"",
		"No API calls were made (no charges incurred).",
	)
	return strings.Join(lines, "\n")
}
