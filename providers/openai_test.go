package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenAIProvider("test-key")
	p.BaseURL = srv.URL
	return p
}

func imageResponse(t *testing.T, w http.ResponseWriter, image []byte) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]any{
		"data": []map[string]string{
			{"b64_json": base64.StdEncoding.EncodeToString(image)},
		},
	})
	require.NoError(t, err)
}

func TestOpenAIGeneratePayload(t *testing.T) {
	var got openAIGeneratePayload
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		imageResponse(t, w, []byte("fake-png"))
	})

	out, err := p.Generate(context.Background(), GenerationInput{
		Prompt:      "a lighthouse at dusk",
		Quality:     "medium",
		AspectRatio: "16:9",
		Model:       "gpt-image-1.5",
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-image-1.5", got.Model)
	assert.Equal(t, "a lighthouse at dusk", got.Prompt)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, "medium", got.Quality)
	assert.Equal(t, "1536x1024", got.Size)

	assert.Equal(t, []byte("fake-png"), out.ImageBytes)
	assert.Equal(t, "png", out.Format)
}

func TestOpenAIEditRequestWithReferences(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/edits", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "gpt-image-1.5", r.FormValue("model"))
		assert.Equal(t, "high", r.FormValue("input_fidelity"))
		assert.Len(t, r.MultipartForm.File["image[]"], 2)

		imageResponse(t, w, []byte("edited"))
	})

	out, err := p.Generate(context.Background(), GenerationInput{
		Prompt:          "match this style",
		ReferenceImages: [][]byte{[]byte("ref-1"), []byte("ref-2")},
		InputFidelity:   "high",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("edited"), out.ImageBytes)
}

func TestOpenAIInvalidInputFidelity(t *testing.T) {
	p := NewOpenAIProvider("test-key")

	_, err := p.Generate(context.Background(), GenerationInput{
		Prompt:        "anything",
		InputFidelity: "maximum",
	})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidRequest, CodeOf(err))
}

func TestOpenAITooManyReferences(t *testing.T) {
	p := NewOpenAIProvider("test-key")

	refs := make([][]byte, openAIMaxReferences+1)
	for i := range refs {
		refs[i] = []byte("x")
	}
	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x", ReferenceImages: refs})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidRequest, CodeOf(err))
}

func TestOpenAIRateLimited(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit_exceeded"}}`)
	})

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestOpenAIBadCredential(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid key"}}`)
	})

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrMissingCredential, CodeOf(err))
}

func TestOpenAIContentPolicy(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"rejected","code":"content_policy_violation"}}`)
	})

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrContentPolicy, CodeOf(err))
}

func TestOpenAIEmptyData(t *testing.T) {
	p := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := p.Generate(context.Background(), GenerationInput{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, ErrMalformedResponse, CodeOf(err))
}

func TestSizeForAspectRatio(t *testing.T) {
	assert.Equal(t, "1536x1024", sizeForAspectRatio("16:9"))
	assert.Equal(t, "1536x1024", sizeForAspectRatio("4:3"))
	assert.Equal(t, "1024x1536", sizeForAspectRatio("9:16"))
	assert.Equal(t, "1024x1536", sizeForAspectRatio("3:4"))
	assert.Equal(t, "1024x1024", sizeForAspectRatio("1:1"))
	assert.Equal(t, "", sizeForAspectRatio(""))
}
