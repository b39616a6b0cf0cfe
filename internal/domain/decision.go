package domain

// DecisionKind is the reconciler's verdict for one held asset.
type DecisionKind int

const (
	// DecisionDefer means market data is missing; try again next cycle.
	DecisionDefer DecisionKind = iota
	// DecisionSkip means a resting order already sells this asset.
	DecisionSkip
	// DecisionAct means a new resting order should be placed.
	DecisionAct
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionSkip:
		return "skip"
	case DecisionAct:
		return "act"
	default:
		return "defer"
	}
}

// Decision is produced per asset per cycle and never persisted.
type Decision struct {
	Kind   DecisionKind
	Asset  HeldAsset
	Quote  *MarketQuote // set only for DecisionAct
	Reason string
}
