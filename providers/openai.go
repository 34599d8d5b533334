package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	openAIBaseURL       = "https://api.openai.com/v1"
	openAIGenerateModel = "gpt-image-1.5"
	openAIMaxReferences = 10
)

var openAIQualities = []string{"low", "medium", "high"}

// OpenAIProvider implements the ImageProvider for the OpenAI images API.
type OpenAIProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

var openAIModels = []ModelCapabilities{
	{Name: openAIGenerateModel, SupportedParams: []string{"quality", "input_fidelity", "reference_images"}, MaxReferences: openAIMaxReferences},
	{Name: "dall-e-3", SupportedParams: []string{"quality"}, MaxReferences: 0},
}

// NewOpenAIProvider creates a new OpenAI client.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey:  apiKey,
		BaseURL: openAIBaseURL,
		Client:  &http.Client{},
	}
}

// GetName returns the name of the provider.
func (p *OpenAIProvider) GetName() string {
	return ProviderOpenAI
}

// GetGenerateModel returns the default model used for generation.
func (p *OpenAIProvider) GetGenerateModel() string {
	return openAIGenerateModel
}

// GetModels returns the list of models and their capabilities for OpenAI.
func (p *OpenAIProvider) GetModels() []ModelCapabilities {
	return openAIModels
}

// ValidQualities returns the quality tiers the images API accepts.
func (p *OpenAIProvider) ValidQualities() []string {
	return openAIQualities
}

// ValidResolutions returns nil: OpenAI models take a quality tier instead.
func (p *OpenAIProvider) ValidResolutions() []string {
	return nil
}

// MaxReferenceImages returns the reference image ceiling for image edits.
func (p *OpenAIProvider) MaxReferenceImages() int {
	return openAIMaxReferences
}

// sizeForAspectRatio maps the shared aspect-ratio vocabulary onto the
// discrete sizes the images API understands.
func sizeForAspectRatio(aspectRatio string) string {
	switch aspectRatio {
	case "16:9", "4:3":
		return "1536x1024"
	case "9:16", "3:4":
		return "1024x1536"
	case "1:1":
		return "1024x1024"
	}
	return ""
}

type openAIGeneratePayload struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Quality string `json:"quality,omitempty"`
	Size    string `json:"size,omitempty"`
}

type openAIImagesResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json,omitempty"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Generate sends a request to the OpenAI images API. Requests without
// reference images go to the generations endpoint; requests with
// references go to the edits endpoint as multipart form data.
func (p *OpenAIProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationOutput, error) {
	if len(input.ReferenceImages) > openAIMaxReferences {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI,
			fmt.Sprintf("too many reference images: %d. Max %d allowed", len(input.ReferenceImages), openAIMaxReferences))
	}
	if input.InputFidelity != "" && input.InputFidelity != "high" && input.InputFidelity != "low" {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI,
			fmt.Sprintf("invalid input_fidelity: %q (must be \"high\" or \"low\")", input.InputFidelity))
	}

	model := input.Model
	if model == "" {
		model = openAIGenerateModel
	}

	log.Printf("Calling provider '%s' with model '%s'", p.GetName(), model)

	var req *http.Request
	var err error
	if len(input.ReferenceImages) > 0 {
		req, err = p.newEditRequest(ctx, model, input)
	} else {
		req, err = p.newGenerateRequest(ctx, model, input)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, NewError(ErrUpstream, ProviderOpenAI, "failed to call images API").WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(ErrUpstream, ProviderOpenAI, "failed to read response body").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.classifyHTTPError(resp.StatusCode, body)
	}

	var apiResp openAIImagesResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, NewError(ErrMalformedResponse, ProviderOpenAI, "failed to decode response").WithCause(err)
	}
	if len(apiResp.Data) == 0 {
		return nil, NewError(ErrMalformedResponse, ProviderOpenAI, "no images returned in response")
	}

	if b64 := apiResp.Data[0].B64JSON; b64 != "" {
		imageData, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, NewError(ErrMalformedResponse, ProviderOpenAI, "failed to decode base64 image data").WithCause(err)
		}
		return &GenerationOutput{ImageBytes: imageData, Format: "png"}, nil
	}

	// Older dall-e models answer with a URL instead of inline data.
	if url := apiResp.Data[0].URL; url != "" {
		imageData, _, err := DownloadFile(url)
		if err != nil {
			return nil, NewError(ErrUpstream, ProviderOpenAI, "failed to download generated image").WithCause(err)
		}
		return &GenerationOutput{ImageBytes: imageData, Format: "png"}, nil
	}

	return nil, NewError(ErrMalformedResponse, ProviderOpenAI, "no image data in response")
}

func (p *OpenAIProvider) newGenerateRequest(ctx context.Context, model string, input GenerationInput) (*http.Request, error) {
	payload := openAIGeneratePayload{
		Model:   model,
		Prompt:  input.Prompt,
		N:       1,
		Quality: input.Quality,
		Size:    sizeForAspectRatio(input.AspectRatio),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to marshal payload").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/images/generations", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to create request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (p *OpenAIProvider) newEditRequest(ctx context.Context, model string, input GenerationInput) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"model":  model,
		"prompt": input.Prompt,
		"n":      "1",
	}
	if input.Quality != "" {
		fields["quality"] = input.Quality
	}
	if input.InputFidelity != "" {
		fields["input_fidelity"] = input.InputFidelity
	}
	if size := sizeForAspectRatio(input.AspectRatio); size != "" {
		fields["size"] = size
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to write form field").WithCause(err)
		}
	}

	for i, ref := range input.ReferenceImages {
		part, err := w.CreateFormFile("image[]", fmt.Sprintf("reference_%d.png", i+1))
		if err != nil {
			return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to create form file").WithCause(err)
		}
		if _, err := part.Write(ref); err != nil {
			return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to write reference image").WithCause(err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to finalize multipart body").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/images/edits", &buf)
	if err != nil {
		return nil, NewError(ErrInvalidRequest, ProviderOpenAI, "failed to create request").WithCause(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func (p *OpenAIProvider) classifyHTTPError(status int, body []byte) error {
	var apiResp openAIImagesResponse
	_ = json.Unmarshal(body, &apiResp)
	message := apiResp.Error.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusTooManyRequests:
		return NewError(ErrRateLimited, ProviderOpenAI, "rate limit exceeded")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(ErrMissingCredential, ProviderOpenAI, "API key rejected")
	case apiResp.Error.Code == "content_policy_violation" || strings.Contains(apiResp.Error.Type, "content_policy"):
		return NewError(ErrContentPolicy, ProviderOpenAI, message)
	}
	return NewError(ErrUpstream, ProviderOpenAI,
		fmt.Sprintf("API returned non-200 status: %d, body: %s", status, message))
}
