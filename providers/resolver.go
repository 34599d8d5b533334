package providers

import (
	"fmt"
	"strings"
)

// defaultModels maps a provider identifier to its default generation
// model without requiring a constructed provider instance.
var defaultModels = map[string]string{
	ProviderGoogle: googleGenerateModel,
	ProviderOpenAI: openAIGenerateModel,
}

// modelPrefixes maps model-name conventions to providers. Checked only
// after the exact-alias table, so a model literally named "google"
// can never be mis-routed by a prefix rule.
var modelPrefixes = []struct {
	prefix   string
	provider string
}{
	{"gemini-", ProviderGoogle},
	{"google-", ProviderGoogle},
	{"gpt-", ProviderOpenAI},
	{"dall-e-", ProviderOpenAI},
}

// Resolve maps a raw model-or-alias string and an optional explicit
// provider hint to a concrete (provider, model) pair.
//
// Resolution order: exact bare-alias match, then prefix inference,
// then the fixed default provider. An explicit hint overrides
// inference, but a model string that clearly belongs to a different
// provider fails with ErrProviderModelMismatch rather than being
// silently re-routed.
func Resolve(modelOrAlias, providerHint string) (provider, model string, err error) {
	raw := strings.TrimSpace(modelOrAlias)
	hint := strings.TrimSpace(providerHint)

	if hint != "" {
		if _, ok := defaultModels[hint]; !ok {
			return "", "", NewError(ErrUnknownProvider, hint, "unknown provider: "+hint)
		}
	}

	// Empty model means "use the process default" (or the hint's default).
	if raw == "" {
		provider = DefaultProvider
		if hint != "" {
			provider = hint
		}
		return provider, defaultModels[provider], nil
	}

	// 1. Exact bare-alias match always wins.
	if _, ok := defaultModels[raw]; ok {
		if hint != "" && hint != raw {
			return "", "", NewError(ErrProviderModelMismatch, hint,
				fmt.Sprintf("alias %q does not belong to provider %q", raw, hint))
		}
		return raw, defaultModels[raw], nil
	}

	// 2. Prefix inference against known model-name conventions.
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(raw, mp.prefix) {
			if hint != "" && hint != mp.provider {
				return "", "", NewError(ErrProviderModelMismatch, hint,
					fmt.Sprintf("model %q belongs to provider %q, not %q", raw, mp.provider, hint))
			}
			return mp.provider, raw, nil
		}
	}

	// 3. No convention matched: the hint decides, otherwise fall back
	// to the default provider.
	if hint != "" {
		return hint, raw, nil
	}
	return DefaultProvider, raw, nil
}
