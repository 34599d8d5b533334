// Package pricing holds the static per-image price table and the cost
// estimator used for dry runs and pre-generation confirmation.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"imggen/providers"
)

// UnknownTierError indicates a (provider, tier) pair absent from the
// price table. The resolver never produces such a pair, so reaching
// this is an internal contract breach, not a user input error.
type UnknownTierError struct {
	Provider string
	Tier     string
}

func (e *UnknownTierError) Error() string {
	return fmt.Sprintf("no price entry for provider %q tier %q", e.Provider, e.Tier)
}

// table maps (provider, quality-or-resolution tier) to the cost of one
// generated image in USD. Loaded once, never mutated.
var table = map[string]map[string]decimal.Decimal{
	providers.ProviderOpenAI: {
		"low":    decimal.RequireFromString("0.009"),
		"medium": decimal.RequireFromString("0.034"),
		"high":   decimal.RequireFromString("0.133"),
	},
	providers.ProviderGoogle: {
		"1K": decimal.RequireFromString("0.134"),
		"2K": decimal.RequireFromString("0.134"),
		"4K": decimal.RequireFromString("0.240"),
	},
}

// defaultTiers is the tier assumed when the caller specifies none.
var defaultTiers = map[string]string{
	providers.ProviderOpenAI: "low",
	providers.ProviderGoogle: "2K",
}

// TierFor picks the price tier for a provider from the quality and
// resolution settings: OpenAI is priced by quality, Google by
// resolution. An empty setting falls back to the provider's default tier.
func TierFor(provider, quality, resolution string) string {
	var tier string
	switch provider {
	case providers.ProviderOpenAI:
		tier = quality
	case providers.ProviderGoogle:
		tier = resolution
	}
	if tier == "" {
		tier = defaultTiers[provider]
	}
	return tier
}

// UnitCost returns the price of a single image for the given provider
// and tier.
func UnitCost(provider, tier string) (decimal.Decimal, error) {
	tiers, ok := table[provider]
	if !ok {
		return decimal.Zero, &UnknownTierError{Provider: provider, Tier: tier}
	}
	cost, ok := tiers[tier]
	if !ok {
		return decimal.Zero, &UnknownTierError{Provider: provider, Tier: tier}
	}
	return cost, nil
}

// Estimate returns the cost of generating variations images at the
// given provider and tier. Pure table lookup and multiplication; no
// network state involved.
func Estimate(provider, tier string, variations int) (decimal.Decimal, error) {
	unit, err := UnitCost(provider, tier)
	if err != nil {
		return decimal.Zero, err
	}
	return unit.Mul(decimal.NewFromInt(int64(variations))), nil
}
