package batch

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// parseModel is the text model used for structured-output parsing; it
// is far cheaper than the image models.
const parseModel = "gemini-2.0-flash"

const parsePromptTemplate = `Parse this natural language request into a batch image generation YAML structure.

For each image request:
- Extract a clear, descriptive prompt
- Default to 4 variations if not specified, but cap at maximum 4 variations
- Map terms like "widescreen" to "16:9", "portrait" to "9:16"
- Extract any file paths for style references

Return valid JSON matching this structure:
{
  "images": [
    {"prompt": "description", "variations": 4, "aspect_ratio": "16:9"},
    ...
  ],
  "global_style_references": []
}

User request:
%s`

// parseSchema constrains the model to the batch file shape.
var parseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"images": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":         {Type: genai.TypeString},
					"prompt":       {Type: genai.TypeString},
					"variations":   {Type: genai.TypeInteger},
					"aspect_ratio": {Type: genai.TypeString},
					"resolution":   {Type: genai.TypeString},
				},
				Required: []string{"prompt", "variations"},
			},
		},
		"global_style_references": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"output_folder": {Type: genai.TypeString},
	},
	Required: []string{"images"},
}

// ParseNatural turns a free-form prompt description into a validated
// batch file using Gemini structured output.
func ParseNatural(ctx context.Context, apiKey, input string) (*File, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, parseModel,
		genai.Text(fmt.Sprintf(parsePromptTemplate, input)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   parseSchema,
		})
	if err != nil {
		return nil, fmt.Errorf("parsing request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var f File
	if err := json.Unmarshal([]byte(text), &f); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini response as JSON: %w", err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// OutputFolderName derives the output folder name from an input file
// base name, e.g. prompts.txt -> prompts_output.
func OutputFolderName(base string) string {
	return base + "_output"
}
