package providers

import (
	"context"
	"sync"
)

// Provider identifiers known to the registry.
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"

	// DefaultProvider is used when neither an alias nor a model prefix
	// identifies a provider.
	DefaultProvider = ProviderOpenAI
)

// AspectRatios is the fixed set of aspect ratios accepted by every provider.
var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

// ValidAspectRatio reports whether s is an accepted aspect ratio.
func ValidAspectRatio(s string) bool {
	for _, r := range AspectRatios {
		if s == r {
			return true
		}
	}
	return false
}

// ModelCapabilities defines the specific capabilities of an AI model.
type ModelCapabilities struct {
	Name            string   `json:"name"`
	SupportedParams []string `json:"supported_params"`
	MaxReferences   int      `json:"max_references"`
}

// GenerationInput defines the standardized input for all AI providers.
type GenerationInput struct {
	Prompt          string
	ReferenceImages [][]byte // raw reference image bytes, already normalized
	AspectRatio     string   // e.g. "16:9"
	Resolution      string   // Google resolution tier, e.g. "2K"
	Quality         string   // OpenAI quality tier, e.g. "medium"
	InputFidelity   string   // OpenAI only: "high" or "low"
	Model           string   // the specific model name, e.g. "gpt-image-1.5"
}

// GenerationOutput defines the standardized output from all AI providers.
type GenerationOutput struct {
	ImageBytes []byte // the generated image bytes
	Format     string // the format of the image, e.g. "png"
}

// ImageProvider is the interface that all AI providers must implement.
type ImageProvider interface {
	// Generate an image based on the provided input.
	Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error)
	// GetName returns the name of the provider (e.g. "google").
	GetName() string
	// GetGenerateModel returns the default model used for generation.
	GetGenerateModel() string
	// GetModels returns a list of models supported by the provider and their capabilities.
	GetModels() []ModelCapabilities
	// ValidQualities returns the quality tiers the provider accepts, if any.
	ValidQualities() []string
	// ValidResolutions returns the resolution tiers the provider accepts, if any.
	ValidResolutions() []string
	// MaxReferenceImages returns the maximum number of reference images per request.
	MaxReferenceImages() int
}

// Credentials carries the per-provider API keys handed to the registry.
// Keys are opaque to everything below the registry.
type Credentials struct {
	Google string
	OpenAI string
}

// Registry constructs and caches one provider instance per known
// identifier. Instances are safe to reuse across jobs within one run.
type Registry struct {
	creds Credentials

	mu    sync.Mutex
	cache map[string]ImageProvider
}

// NewRegistry creates a registry holding the given credentials.
func NewRegistry(creds Credentials) *Registry {
	return &Registry{
		creds: creds,
		cache: make(map[string]ImageProvider),
	}
}

// Get returns the provider instance for the given identifier,
// constructing it on first use. An unknown identifier fails with
// ErrUnknownProvider; a known identifier without a stored credential
// fails with ErrMissingCredential before any instance is built.
func (r *Registry) Get(name string) (ImageProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[name]; ok {
		return p, nil
	}

	var p ImageProvider
	switch name {
	case ProviderGoogle:
		if r.creds.Google == "" {
			return nil, NewError(ErrMissingCredential, name, "no API key configured for google")
		}
		p = NewGoogleProvider(r.creds.Google)
	case ProviderOpenAI:
		if r.creds.OpenAI == "" {
			return nil, NewError(ErrMissingCredential, name, "no API key configured for openai")
		}
		p = NewOpenAIProvider(r.creds.OpenAI)
	default:
		return nil, NewError(ErrUnknownProvider, name, "unknown provider: "+name)
	}

	r.cache[name] = p
	return p, nil
}

// QualityTiers exposes the OpenAI quality vocabulary for
// pre-resolution validation in the CLI and batch loader.
func QualityTiers() []string { return openAIQualities }

// ResolutionTiers exposes the Google resolution vocabulary for
// pre-resolution validation in the CLI and batch loader.
func ResolutionTiers() []string { return googleResolutions }

// AvailableModels returns all selectable models grouped by provider.
func AvailableModels() map[string][]string {
	return map[string][]string{
		ProviderOpenAI: {openAIGenerateModel},
		ProviderGoogle: {googleGenerateModel},
	}
}
