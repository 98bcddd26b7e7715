package token

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ParseUnits converts a decimal string such as "1.5" into base units of a
// mint with the given decimals.
func ParseUnits(value string, decimals uint8) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("token: empty amount")
	}
	whole, frac, hasFrac := strings.Cut(value, ".")
	if hasFrac && len(frac) > int(decimals) {
		return 0, fmt.Errorf("token: amount %q has more than %d decimals", value, decimals)
	}
	if whole == "" {
		whole = "0"
	}
	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	amount, err := uint256.FromDecimal(digits)
	if err != nil {
		return 0, fmt.Errorf("token: invalid amount %q: %w", value, err)
	}
	if !amount.IsUint64() {
		return 0, fmt.Errorf("token: amount %q exceeds 64 bits", value)
	}
	return amount.Uint64(), nil
}

// FormatUnits renders base units as a decimal string, trimming trailing
// fractional zeros.
func FormatUnits(amount uint64, decimals uint8) string {
	x := uint256.NewInt(amount)
	if decimals == 0 {
		return x.Dec()
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	whole, frac := new(uint256.Int).DivMod(x, scale, new(uint256.Int))
	if frac.IsZero() {
		return whole.Dec()
	}
	fracStr := frac.Dec()
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	return whole.Dec() + "." + strings.TrimRight(fracStr, "0")
}
