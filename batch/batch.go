// Package batch loads and validates batch generation files and turns
// natural-language prompt lists into them.
package batch

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"imggen/providers"
)

// DefaultVariations is assumed when an image entry names no count.
const DefaultVariations = 4

// MaxVariations caps the per-image variation count.
const MaxVariations = 4

// Image is one prompt entry in a batch file.
type Image struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Prompt      string `yaml:"prompt" json:"prompt"`
	Variations  int    `yaml:"variations" json:"variations"`
	AspectRatio string `yaml:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`
	Resolution  string `yaml:"resolution,omitempty" json:"resolution,omitempty"`
}

// File is a whole batch generation file.
type File struct {
	Images                []Image  `yaml:"images" json:"images"`
	GlobalStyleReferences []string `yaml:"global_style_references,omitempty" json:"global_style_references,omitempty"`
	OutputFolder          string   `yaml:"output_folder,omitempty" json:"output_folder,omitempty"`
}

// Load reads and validates a batch YAML file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid YAML file: %w", err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate enforces batch constraints in place: variation defaults and
// caps, slug names with duplicate handling, and the aspect-ratio and
// resolution whitelists.
func Validate(f *File) error {
	if len(f.Images) == 0 {
		return fmt.Errorf("batch file must contain an 'images' list")
	}

	usedNames := make(map[string]int)
	for i := range f.Images {
		img := &f.Images[i]

		if img.Prompt == "" {
			return fmt.Errorf("image %d must have a non-empty 'prompt'", i)
		}

		if img.Variations == 0 {
			img.Variations = DefaultVariations
		}
		if img.Variations < 0 {
			return fmt.Errorf("image %d variations must be a positive integer", i)
		}
		if img.Variations > MaxVariations {
			img.Variations = MaxVariations
		}

		baseName := sanitizeName(img.Name)
		if baseName == "" {
			baseName = Slug(img.Prompt, i+1)
		}
		if count, ok := usedNames[baseName]; ok {
			usedNames[baseName] = count + 1
			img.Name = fmt.Sprintf("%s_%d", baseName, count+1)
		} else {
			usedNames[baseName] = 1
			img.Name = baseName
		}

		if img.AspectRatio != "" && !providers.ValidAspectRatio(img.AspectRatio) {
			return fmt.Errorf("image %d aspect_ratio must be one of %v", i, providers.AspectRatios)
		}
		if img.Resolution != "" && !contains(providers.ResolutionTiers(), img.Resolution) {
			return fmt.Errorf("image %d resolution must be one of %v", i, providers.ResolutionTiers())
		}
	}
	return nil
}

// TotalImages returns the number of images a validated batch will generate.
func (f *File) TotalImages() int {
	total := 0
	for _, img := range f.Images {
		total += img.Variations
	}
	return total
}

// Save writes the batch file as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var nameSanitizer = regexp.MustCompile(`[^a-z0-9_-]`)

func sanitizeName(name string) string {
	return nameSanitizer.ReplaceAllString(strings.ToLower(name), "")
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Words to skip when building a slug from a prompt.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "for": true,
	"of": true, "with": true, "by": true, "is": true, "are": true,
	"be": true, "no": true, "not": true, "that": true, "this": true,
}

// Distinguishing words kept in front when present.
var priorityWords = map[string]bool{
	"female": true, "male": true, "woman": true, "man": true,
	"girl": true, "boy": true, "women": true, "men": true,
	"dark": true, "light": true, "bright": true, "digital": true,
	"oil": true, "watercolor": true,
}

var wordPattern = regexp.MustCompile(`\b[a-z]+\b`)
var slugSanitizer = regexp.MustCompile(`[^a-z0-9_]`)

// Slug derives a filesystem-safe snake_case name from a prompt,
// preferring distinctive words and falling back to image_{index}.
func Slug(prompt string, index int) string {
	words := wordPattern.FindAllString(strings.ToLower(prompt), -1)

	var priority, meaningful []string
	for _, w := range words {
		switch {
		case priorityWords[w]:
			priority = append(priority, w)
		case !stopWords[w] && len(w) > 2:
			meaningful = append(meaningful, w)
		}
	}

	var slugWords []string
	switch {
	case len(priority) > 0:
		slugWords = append(slugWords, priority[:min(2, len(priority))]...)
		slugWords = append(slugWords, meaningful[:min(1, len(meaningful))]...)
	case len(meaningful) > 0:
		slugWords = meaningful[:min(3, len(meaningful))]
	default:
		return fmt.Sprintf("image_%03d", index)
	}

	slug := strings.Join(slugWords, "_")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	return slugSanitizer.ReplaceAllString(slug, "")
}
