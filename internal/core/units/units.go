// Package units converts between human decimal strings and integer base
// units. All scaling is string/big.Int based; floats never touch amounts so
// high-decimal tokens keep exact precision.
package units

import (
	"fmt"
	"math/big"
	"strings"
)

// EtherDecimals is the native coin's decimal count (wei per ether).
const EtherDecimals = 18

// Parse converts a decimal string to base units at the given decimals.
// Example: Parse("1.5", 18) = 1500000000000000000.
func Parse(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount")
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return nil, fmt.Errorf("invalid decimal format")
		}
	}
	if whole == "" {
		whole = "0"
	}

	// Pad or reject excess fractional digits; truncation would silently
	// change the amount the caller asked to send.
	if len(frac) > decimals {
		return nil, fmt.Errorf("too many decimal places (max %d)", decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// Format converts base units to a decimal string at the given decimals.
// Example: Format(1500000000000000000, 18) = "1.5".
func Format(n *big.Int, decimals int) string {
	if n == nil {
		return "0"
	}
	s := n.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	for len(s) <= decimals {
		s = "0" + s
	}
	pos := len(s) - decimals
	whole, frac := s[:pos], s[pos:]

	frac = strings.TrimRight(frac, "0")
	out := whole
	if frac != "" {
		out = whole + "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// ParseEther parses a decimal ether string to wei.
func ParseEther(s string) (*big.Int, error) {
	return Parse(s, EtherDecimals)
}

// FormatWei formats wei as a decimal ether string.
func FormatWei(wei *big.Int) string {
	return Format(wei, EtherDecimals)
}
