package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedCandidatesPreferredFirst(t *testing.T) {
	registry := DefaultRegistry()

	ordered := registry.OrderedCandidates("0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D")

	require.Len(t, ordered, 3)
	assert.Equal(t, "Secondary", ordered[0].Name)
	assert.Equal(t, "Primary", ordered[1].Name)
	assert.Equal(t, "Tertiary", ordered[2].Name)
}

func TestOrderedCandidatesCaseInsensitive(t *testing.T) {
	registry := DefaultRegistry()

	ordered := registry.OrderedCandidates("0XF97A395850304B8EC9B8F9C80A17674886612065")

	require.Len(t, ordered, 3)
	assert.Equal(t, "Tertiary", ordered[0].Name)
}

func TestOrderedCandidatesNoPreference(t *testing.T) {
	registry := DefaultRegistry()

	for _, preferred := range []string{"", "0x0000000000000000000000000000000000000001"} {
		ordered := registry.OrderedCandidates(preferred)
		require.Len(t, ordered, 3)
		assert.Equal(t, "Primary", ordered[0].Name)
		assert.Equal(t, "Secondary", ordered[1].Name)
		assert.Equal(t, "Tertiary", ordered[2].Name)
	}
}

func TestOrderedCandidatesNoDuplicates(t *testing.T) {
	registry := DefaultRegistry()

	for _, preferred := range []string{"", registry.Contracts[0].Address, registry.Contracts[2].Address, "0xdead"} {
		ordered := registry.OrderedCandidates(preferred)
		require.Len(t, ordered, len(registry.Contracts))
		seen := make(map[int]bool)
		for _, contract := range ordered {
			assert.False(t, seen[contract.ID], "contract %d appears twice for preferred %q", contract.ID, preferred)
			seen[contract.ID] = true
		}
	}
}

func TestTokenLookup(t *testing.T) {
	registry := DefaultRegistry()

	token, ok := registry.Token("weth")
	require.True(t, ok)
	assert.Equal(t, uint8(18), token.Decimals)
	assert.Equal(t, 3450.0, token.PriceUSD)

	_, ok = registry.Token("DOGE")
	assert.False(t, ok)
}

func TestFallbackDecimals(t *testing.T) {
	registry := DefaultRegistry()

	assert.Equal(t, uint8(18), registry.FallbackDecimals("WETH"))
	assert.Equal(t, uint8(8), registry.FallbackDecimals("WBTC"))
	assert.Equal(t, uint8(8), registry.FallbackDecimals("wbtc"))
	assert.Equal(t, uint8(18), registry.FallbackDecimals("UNKNOWN"))
}

func TestSupportedSymbols(t *testing.T) {
	registry := DefaultRegistry()
	symbols := registry.SupportedSymbols()
	assert.ElementsMatch(t, []string{"ETH", "WETH", "WBTC"}, symbols)
}
