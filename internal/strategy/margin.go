package strategy

import (
	"fmt"

	"profit_go/internal/domain"

	"github.com/shopspring/decimal"
)

// ComputeTarget returns the price that realizes marginRatio over currentPrice and
// what heldAmount would fetch at that price.
//
//	targetPrice      = currentPrice * (1 + marginRatio)
//	expectedProceeds = heldAmount * targetPrice
func ComputeTarget(currentPrice, heldAmount, marginRatio decimal.Decimal) (Target, error) {
	if marginRatio.IsNegative() {
		return Target{}, fmt.Errorf("%w: margin ratio %s is negative", domain.ErrInvalidInput, marginRatio)
	}
	if !currentPrice.IsPositive() {
		return Target{}, fmt.Errorf("%w: price %s must be positive", domain.ErrInvalidInput, currentPrice)
	}
	if !heldAmount.IsPositive() {
		return Target{}, fmt.Errorf("%w: amount %s must be positive", domain.ErrInvalidInput, heldAmount)
	}

	targetPrice := currentPrice.Mul(decimal.NewFromInt(1).Add(marginRatio))
	return Target{
		TargetPrice:      targetPrice,
		ExpectedProceeds: heldAmount.Mul(targetPrice),
	}, nil
}

// FixedMargin prices every position at a static margin over the market.
type FixedMargin struct {
	Ratio decimal.Decimal
}

// NewFixedMargin validates ratio once so per-asset calls cannot fail on it.
func NewFixedMargin(ratio decimal.Decimal) (*FixedMargin, error) {
	if ratio.IsNegative() {
		return nil, fmt.Errorf("%w: margin ratio %s is negative", domain.ErrInvalidInput, ratio)
	}
	return &FixedMargin{Ratio: ratio}, nil
}

// Target implements Pricer.
func (m *FixedMargin) Target(currentPrice, heldAmount decimal.Decimal) (Target, error) {
	return ComputeTarget(currentPrice, heldAmount, m.Ratio)
}
