package domain

import "strings"

// Token describes a supported asset. Only native-coin transfers are relayed;
// the registry exists so unknown symbols are rejected by lookup rather than
// by string comparisons scattered through the flow.
type Token struct {
	Symbol   string `yaml:"symbol"`
	Decimals int    `yaml:"decimals"`
	Native   bool   `yaml:"native"`
}

// TokenRegistry maps upper-cased symbols to token definitions.
type TokenRegistry struct {
	tokens map[string]Token
}

// NewTokenRegistry builds a registry from configured tokens.
func NewTokenRegistry(tokens []Token) *TokenRegistry {
	m := make(map[string]Token, len(tokens))
	for _, t := range tokens {
		m[strings.ToUpper(t.Symbol)] = t
	}
	return &TokenRegistry{tokens: m}
}

// Lookup returns the token for a symbol, case-insensitive.
func (r *TokenRegistry) Lookup(symbol string) (Token, bool) {
	t, ok := r.tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

// DefaultTokens is the registry used when the config lists none.
var DefaultTokens = []Token{
	{Symbol: "ETH", Decimals: 18, Native: true},
	{Symbol: "SepoliaETH", Decimals: 18, Native: true},
}
