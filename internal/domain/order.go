package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpenOrder is a resting limit order not yet filled, cancelled or expired.
// Amounts are raw minor units as reported by the execution venue.
type OpenOrder struct {
	OrderID       string
	InputAssetID  string
	OutputAssetID string
	InAmount      decimal.Decimal
	OutAmount     decimal.Decimal
	ExpiresAt     *time.Time
}

// OrderRequest describes a new resting order. Amounts are integral minor units.
type OrderRequest struct {
	InputAssetID  string
	OutputAssetID string
	InAmount      decimal.Decimal
	OutAmount     decimal.Decimal
	ExpiresAt     *time.Time // nil = no expiry
}

// OpenOrderSet indexes a snapshot of open orders by input asset.
// It is built once per cycle and only read afterwards.
type OpenOrderSet struct {
	byInput map[string][]OpenOrder
	count   int
}

// NewOpenOrderSet builds the set from a list of open orders.
func NewOpenOrderSet(orders []OpenOrder) OpenOrderSet {
	set := OpenOrderSet{byInput: make(map[string][]OpenOrder, len(orders))}
	for _, o := range orders {
		set.byInput[o.InputAssetID] = append(set.byInput[o.InputAssetID], o)
		set.count++
	}
	return set
}

// HasInput reports whether any open order sells assetID.
func (s OpenOrderSet) HasInput(assetID string) bool {
	return len(s.byInput[assetID]) > 0
}

// ForInput returns the open orders selling assetID.
func (s OpenOrderSet) ForInput(assetID string) []OpenOrder {
	return s.byInput[assetID]
}

// Len returns the total number of open orders.
func (s OpenOrderSet) Len() int {
	return s.count
}
