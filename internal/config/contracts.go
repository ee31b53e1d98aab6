// Token contract registry - static candidate list and token metadata
package config

import (
	"strings"
)

// ContractDescriptor a candidate token-issuing contract
type ContractDescriptor struct {
	ID      int    `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Address string `yaml:"address" json:"address"`
}

// TokenConfig static token metadata. Address is a contract address or
// "native" for the chain's base currency.
type TokenConfig struct {
	Symbol   string  `yaml:"symbol" json:"symbol"`
	Decimals uint8   `yaml:"decimals" json:"decimals"`
	PriceUSD float64 `yaml:"priceUSD" json:"priceUSD"`
	Address  string  `yaml:"address" json:"address"`
}

// Registry holds the ordered candidate contract list and the token table.
// Both are read-only after startup.
type Registry struct {
	Contracts []ContractDescriptor   `yaml:"contracts"`
	Tokens    map[string]TokenConfig `yaml:"tokens"`
}

// DefaultRegistry returns the production contract and token tables.
func DefaultRegistry() *Registry {
	return &Registry{
		Contracts: []ContractDescriptor{
			{ID: 1, Name: "Primary", Address: "0x29983BE497D4c1D39Aa80D20Cf74173ae81D2af5"},
			{ID: 2, Name: "Secondary", Address: "0x0b8Add0d32eFaF79E6DB4C58CcA61D6eFBCcAa3D"},
			{ID: 3, Name: "Tertiary", Address: "0xf97A395850304b8ec9B8f9c80A17674886612065"},
		},
		Tokens: map[string]TokenConfig{
			"ETH":  {Symbol: "ETH", Decimals: 18, PriceUSD: 3450, Address: "native"},
			"WETH": {Symbol: "WETH", Decimals: 18, PriceUSD: 3450, Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
			"WBTC": {Symbol: "WBTC", Decimals: 8, PriceUSD: 98500, Address: "0x2260FAC5E5542a773Aa44fBCfEDc1F1FFC9A8d16"},
		},
	}
}

// OrderedCandidates returns every registered contract exactly once. When
// preferred matches a registered address (case-insensitively) that entry
// moves to the front; the rest keep their declared order. An unmatched or
// empty preferred address leaves the declared order untouched.
func (r *Registry) OrderedCandidates(preferred string) []ContractDescriptor {
	ordered := make([]ContractDescriptor, 0, len(r.Contracts))

	matched := -1
	if preferred != "" {
		for i, contract := range r.Contracts {
			if strings.EqualFold(contract.Address, preferred) {
				matched = i
				ordered = append(ordered, contract)
				break
			}
		}
	}

	for i, contract := range r.Contracts {
		if i == matched {
			continue
		}
		ordered = append(ordered, contract)
	}

	return ordered
}

// Token looks up static metadata for a symbol.
func (r *Registry) Token(symbol string) (TokenConfig, bool) {
	token, ok := r.Tokens[strings.ToUpper(symbol)]
	return token, ok
}

// FallbackDecimals is the decimal precision used when a contract refuses
// the decimals() call: the static table value when the symbol is known,
// otherwise 18 (8 for WBTC).
func (r *Registry) FallbackDecimals(symbol string) uint8 {
	if token, ok := r.Token(symbol); ok {
		return token.Decimals
	}
	if strings.EqualFold(symbol, "WBTC") {
		return 8
	}
	return 18
}

// SupportedSymbols lists the configured token symbols.
func (r *Registry) SupportedSymbols() []string {
	symbols := make([]string, 0, len(r.Tokens))
	for symbol := range r.Tokens {
		symbols = append(symbols, symbol)
	}
	return symbols
}
