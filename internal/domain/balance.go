package domain

import (
	"github.com/shopspring/decimal"
)

// HeldAsset is one token position in the owner's wallet.
// Balance is in major units; Decimals gives the minor-unit exponent.
type HeldAsset struct {
	AssetID  string          `json:"asset_id"` // mint address
	Symbol   string          `json:"symbol"`
	Balance  decimal.Decimal `json:"balance"`
	Decimals uint8           `json:"decimals"`
}

// Tradable returns the portion of the balance offered for sale, truncated to the
// asset's precision so it is always representable in minor units.
func (a HeldAsset) Tradable(fraction decimal.Decimal) decimal.Decimal {
	return a.Balance.Mul(fraction).Truncate(int32(a.Decimals))
}

// ToMinorUnits converts a major-unit amount to the integer count of minor units,
// truncating toward zero.
func ToMinorUnits(amount decimal.Decimal, decimals uint8) decimal.Decimal {
	return amount.Shift(int32(decimals)).Truncate(0)
}

// FromMinorUnits converts raw minor units back to a major-unit amount.
func FromMinorUnits(raw decimal.Decimal, decimals uint8) decimal.Decimal {
	return raw.Shift(-int32(decimals))
}

// Symbols returns the distinct non-empty symbols of assets, in first-seen order.
func Symbols(assets []HeldAsset) []string {
	seen := make(map[string]struct{}, len(assets))
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.Symbol == "" {
			continue
		}
		if _, ok := seen[a.Symbol]; ok {
			continue
		}
		seen[a.Symbol] = struct{}{}
		out = append(out, a.Symbol)
	}
	return out
}
