package cmd

import (
	"fmt"
	"os"
	"strings"

	"imggen/generator"
	"imggen/providers"
)

// validateArguments checks flag combinations and vocabularies before
// anything is loaded or resolved. Messages are phrased for the user,
// not the developer.
func validateArguments(prompt, file, quality, resolution, aspectRatio, fidelity string, variations int) error {
	if prompt == "" && file == "" {
		return fmt.Errorf("Must provide either --prompt or --file")
	}
	if prompt != "" && file != "" {
		return fmt.Errorf("Cannot specify both --prompt and --file")
	}
	if variations < 1 || variations > generator.MaxVariations {
		return fmt.Errorf("Variations must be between 1 and %d", generator.MaxVariations)
	}
	if quality != "" && !contains(providers.QualityTiers(), quality) {
		return fmt.Errorf("Invalid quality level: %s (must be one of %s)", quality, strings.Join(providers.QualityTiers(), ", "))
	}
	if resolution != "" && !contains(providers.ResolutionTiers(), resolution) {
		return fmt.Errorf("Invalid resolution: %s (must be one of %s)", resolution, strings.Join(providers.ResolutionTiers(), ", "))
	}
	if aspectRatio != "" && !providers.ValidAspectRatio(aspectRatio) {
		return fmt.Errorf("Invalid aspect ratio: %s (must be one of %s)", aspectRatio, strings.Join(providers.AspectRatios, ", "))
	}
	if fidelity != "" && fidelity != "high" && fidelity != "low" {
		return fmt.Errorf("Invalid fidelity: %s (must be high or low)", fidelity)
	}
	return nil
}

// loadPrompt returns the prompt text, from the flag or from a file.
func loadPrompt(prompt, file string) (string, error) {
	if prompt != "" {
		return prompt, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("Prompt file not found: %s", file)
		}
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("Prompt file is empty: %s", file)
	}
	return text, nil
}

// loadReferences collects reference image paths from the positional
// arguments or from a --references list file, but never both.
func loadReferences(args []string, referencesFile string) ([]string, error) {
	if len(args) > 0 && referencesFile != "" {
		return nil, fmt.Errorf("Cannot specify both positional reference images and --references file")
	}
	if referencesFile == "" {
		return args, nil
	}

	data, err := os.ReadFile(referencesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("References file not found: %s", referencesFile)
		}
		return nil, fmt.Errorf("failed to read references file: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("References file is empty: %s", referencesFile)
	}
	return paths, nil
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
