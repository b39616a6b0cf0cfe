package domain

import "github.com/shopspring/decimal"

// MarketQuote is the current price of one asset in the configured quote asset.
type MarketQuote struct {
	AssetID      string          `json:"asset_id"` // mint the price refers to
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	QuoteSymbol  string          `json:"quote_symbol"`
	QuoteAssetID string          `json:"quote_asset_id"` // output mint for the resting order
}

// Valid reports whether the quote identifies both sides of a trade and carries a usable price.
func (q *MarketQuote) Valid() bool {
	return q != nil && q.AssetID != "" && q.QuoteAssetID != "" && q.Price.IsPositive()
}
