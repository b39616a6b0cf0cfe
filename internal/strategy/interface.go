package strategy

import (
	"profit_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Target is the sell price the strategy wants for a position.
type Target struct {
	TargetPrice      decimal.Decimal
	ExpectedProceeds decimal.Decimal
}

// Pricer computes a sell target for a position.
// It is called concurrently by the cycle executor and must not hold mutable state.
type Pricer interface {
	Target(currentPrice, heldAmount decimal.Decimal) (Target, error)
}

// Reconciler decides what to do with one held asset in the current cycle.
type Reconciler interface {
	Reconcile(asset domain.HeldAsset, quote *domain.MarketQuote, open domain.OpenOrderSet) domain.Decision
}
