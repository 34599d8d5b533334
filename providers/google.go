package providers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const (
	googleGenerateModel = "gemini-3-pro-image-preview"
	googleMaxReferences = 14
)

var googleResolutions = []string{"1K", "2K", "4K"}

// GoogleProvider implements the ImageProvider for Google/Gemini.
type GoogleProvider struct {
	APIKey string

	mu     sync.Mutex
	client *genai.Client
}

var googleModels = []ModelCapabilities{
	{Name: googleGenerateModel, SupportedParams: []string{"aspect_ratio", "resolution", "reference_images"}, MaxReferences: googleMaxReferences},
}

// NewGoogleProvider creates a new Google/Gemini client. The underlying
// SDK client is built lazily on the first Generate call.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return &GoogleProvider{APIKey: apiKey}
}

// GetName returns the name of the provider.
func (p *GoogleProvider) GetName() string {
	return ProviderGoogle
}

// GetGenerateModel returns the default model used for generation.
func (p *GoogleProvider) GetGenerateModel() string {
	return googleGenerateModel
}

// GetModels returns the list of models and their capabilities for Google.
func (p *GoogleProvider) GetModels() []ModelCapabilities {
	return googleModels
}

// ValidQualities returns nil: Google models take a resolution tier instead.
func (p *GoogleProvider) ValidQualities() []string {
	return nil
}

// ValidResolutions returns the resolution tiers Gemini accepts.
func (p *GoogleProvider) ValidResolutions() []string {
	return googleResolutions
}

// MaxReferenceImages returns the reference image ceiling for Gemini.
func (p *GoogleProvider) MaxReferenceImages() int {
	return googleMaxReferences
}

func (p *GoogleProvider) ensureClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, NewError(ErrUpstream, ProviderGoogle, "failed to create genai client").WithCause(err)
	}
	p.client = client
	return p.client, nil
}

// Generate sends a generation request to the Gemini API and returns
// the first inline image from the response.
func (p *GoogleProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	if len(input.ReferenceImages) > googleMaxReferences {
		return nil, NewError(ErrInvalidRequest, ProviderGoogle,
			fmt.Sprintf("too many reference images: %d. Max %d allowed", len(input.ReferenceImages), googleMaxReferences))
	}

	client, err := p.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	model := input.Model
	if model == "" {
		model = googleGenerateModel
	}

	// Aspect ratio and resolution ride along inside the prompt text;
	// the image models read them from a trailing bracket block.
	requestContent := input.Prompt
	if input.AspectRatio != "" || input.Resolution != "" {
		var configParts []string
		if input.AspectRatio != "" {
			configParts = append(configParts, "aspect_ratio: "+input.AspectRatio)
		}
		if input.Resolution != "" {
			configParts = append(configParts, "quality: "+input.Resolution)
		}
		requestContent = fmt.Sprintf("%s\n\n[%s]", input.Prompt, strings.Join(configParts, ", "))
	}

	parts := []*genai.Part{{Text: requestContent}}
	for _, ref := range input.ReferenceImages {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: http.DetectContentType(ref), Data: ref},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	var config *genai.GenerateContentConfig
	if len(input.ReferenceImages) > 0 {
		config = &genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		}
	}

	log.Printf("Calling provider '%s' with model '%s'", p.GetName(), model)

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, classifyGoogleError(err)
	}

	return extractInlineImage(resp)
}

// classifyGoogleError maps genai SDK errors onto the provider error taxonomy.
func classifyGoogleError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return NewError(ErrRateLimited, ProviderGoogle, "rate limit exceeded").WithCause(err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return NewError(ErrMissingCredential, ProviderGoogle, "API key rejected").WithCause(err)
		}
		return NewError(ErrUpstream, ProviderGoogle,
			fmt.Sprintf("API returned status %d", apiErr.Code)).WithCause(err)
	}
	if strings.Contains(err.Error(), "429") {
		return NewError(ErrRateLimited, ProviderGoogle, "rate limit exceeded").WithCause(err)
	}
	return NewError(ErrUpstream, ProviderGoogle, "failed to call generation API").WithCause(err)
}

func extractInlineImage(resp *genai.GenerateContentResponse) (*GenerationOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, NewError(ErrContentPolicy, ProviderGoogle,
				fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		return nil, NewError(ErrMalformedResponse, ProviderGoogle, "empty response")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, NewError(ErrContentPolicy, ProviderGoogle, "generation blocked by safety filters")
	}
	if candidate.Content == nil {
		return nil, NewError(ErrMalformedResponse, ProviderGoogle, "no content in response")
	}

	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			format := "png"
			if idx := strings.Index(part.InlineData.MIMEType, "/"); idx >= 0 {
				format = part.InlineData.MIMEType[idx+1:]
			}
			return &GenerationOutput{ImageBytes: part.InlineData.Data, Format: format}, nil
		}
	}

	return nil, NewError(ErrMalformedResponse, ProviderGoogle, "no image data in response")
}
