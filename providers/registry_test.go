package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry(Credentials{Google: "gk", OpenAI: "ok"})

	_, err := r.Get("stability")
	require.Error(t, err)
	assert.Equal(t, ErrUnknownProvider, CodeOf(err))
}

func TestRegistryMissingCredential(t *testing.T) {
	r := NewRegistry(Credentials{OpenAI: "ok"})

	_, err := r.Get(ProviderGoogle)
	require.Error(t, err)
	assert.Equal(t, ErrMissingCredential, CodeOf(err))

	// The other provider is unaffected.
	p, err := r.Get(ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.GetName())
}

func TestRegistryConstructsAndCaches(t *testing.T) {
	r := NewRegistry(Credentials{Google: "gk", OpenAI: "ok"})

	first, err := r.Get(ProviderOpenAI)
	require.NoError(t, err)
	second, err := r.Get(ProviderOpenAI)
	require.NoError(t, err)
	assert.Same(t, first, second)

	g, err := r.Get(ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, g.GetName())
	assert.Equal(t, googleGenerateModel, g.GetGenerateModel())
}

func TestProviderCapabilities(t *testing.T) {
	openai := NewOpenAIProvider("k")
	assert.Equal(t, []string{"low", "medium", "high"}, openai.ValidQualities())
	assert.Nil(t, openai.ValidResolutions())
	assert.Equal(t, 10, openai.MaxReferenceImages())

	google := NewGoogleProvider("k")
	assert.Nil(t, google.ValidQualities())
	assert.Equal(t, []string{"1K", "2K", "4K"}, google.ValidResolutions())
	assert.Equal(t, 14, google.MaxReferenceImages())
}

func TestValidAspectRatio(t *testing.T) {
	for _, r := range AspectRatios {
		assert.True(t, ValidAspectRatio(r), r)
	}
	assert.False(t, ValidAspectRatio("21:9"))
	assert.False(t, ValidAspectRatio(""))
}
