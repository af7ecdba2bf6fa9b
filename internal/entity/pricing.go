package entity

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	baseRate  = 0.10
	priceStep = 5.0
)

// DefaultSalePrice is charged when a processed lead somehow lacks a base price.
var DefaultSalePrice = decimal.NewFromInt(50)

// ComputeBasePrice derives the list price:
// value * 0.10, then the quality multiplier, then the urgency multiplier,
// rounded to the nearest multiple of 5.
// The arithmetic is float64 so prices match the published formula exactly,
// including products that land just below a half step.
func ComputeBasePrice(estimatedValue decimal.Decimal, qualityScore int, urgency Urgency) decimal.Decimal {
	value, _ := estimatedValue.Float64()
	price := value * baseRate * QualityMultiplier(qualityScore) * UrgencyMultiplier(urgency)
	return decimal.NewFromFloat(math.Round(price/priceStep) * priceStep)
}

func QualityMultiplier(score int) float64 {
	switch {
	case score >= 80:
		return 1.5
	case score >= 60:
		return 1.2
	case score < 40:
		return 0.7
	default:
		return 1
	}
}

func UrgencyMultiplier(u Urgency) float64 {
	switch u {
	case UrgencyUrgent:
		return 1.3
	case UrgencyHigh:
		return 1.15
	default:
		return 1
	}
}
