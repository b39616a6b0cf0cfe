package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeIntent is the ledger row written before an order is submitted.
// Rows are append-only.
type TradeIntent struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"-"`
	IntentID          string          `gorm:"uniqueIndex;size:36" json:"intent_id"`
	AssetID           string          `gorm:"index" json:"asset_id"`
	Symbol            string          `gorm:"column:name;index" json:"name"`
	BalanceAtDecision decimal.Decimal `gorm:"column:balance;type:text" json:"balance"`
	PurchasePrice     decimal.Decimal `gorm:"column:purchase_amount;type:text" json:"purchase_amount"`
	TargetSellPrice   decimal.Decimal `gorm:"column:sell_amount;type:text" json:"sell_amount"`
	QuoteSymbol       string          `json:"quote_symbol"`
	CreatedAt         time.Time       `json:"created_at"`
}

// TableName keeps the ledger table name stable across struct renames.
func (TradeIntent) TableName() string {
	return "traded_tokens"
}

// TokenInfo is cached token metadata keyed by mint address.
type TokenInfo struct {
	Mint      string    `gorm:"primaryKey" json:"address"`
	Symbol    string    `gorm:"index" json:"symbol"`
	Name      string    `json:"name"`
	Decimals  uint8     `json:"decimals"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
