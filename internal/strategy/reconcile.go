package strategy

import (
	"profit_go/internal/domain"
)

// OpenOrderReconciler keeps at most one resting order per input asset.
// It only looks at whether an order exists, never at its price or size.
type OpenOrderReconciler struct{}

// Reconcile implements Reconciler. It is pure: the same inputs give the same decision.
// open must be the snapshot fetched in the current cycle.
func (OpenOrderReconciler) Reconcile(asset domain.HeldAsset, quote *domain.MarketQuote, open domain.OpenOrderSet) domain.Decision {
	return Reconcile(asset, quote, open)
}

// Reconcile decides Defer, Skip or Act for one asset.
func Reconcile(asset domain.HeldAsset, quote *domain.MarketQuote, open domain.OpenOrderSet) domain.Decision {
	switch {
	case quote == nil:
		return domain.Decision{Kind: domain.DecisionDefer, Asset: asset, Reason: "no quote"}
	case !quote.Valid():
		return domain.Decision{Kind: domain.DecisionDefer, Asset: asset, Reason: "quote is incomplete or price is not positive"}
	case asset.AssetID != "" && quote.AssetID != asset.AssetID:
		// Two mints can share a symbol; the price belongs to the other one.
		return domain.Decision{Kind: domain.DecisionDefer, Asset: asset, Reason: "quote is for mint " + quote.AssetID}
	}

	if open.HasInput(quote.AssetID) {
		return domain.Decision{Kind: domain.DecisionSkip, Asset: asset, Reason: "open order exists"}
	}

	q := *quote
	return domain.Decision{Kind: domain.DecisionAct, Asset: asset, Quote: &q}
}
