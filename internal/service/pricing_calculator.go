package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

const (
	pricePrecision   = 2
	percentPrecision = 4
)

var hundred = decimal.NewFromInt(100)

// PriceQuote is the frozen price applied to a new enrollment.
type PriceQuote struct {
	FinalPrice         decimal.Decimal `json:"final_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	AgreementID        *string         `json:"agreement_id,omitempty"`
}

// PricingCalculator applies school agreements to a base price. It holds no state.
type PricingCalculator struct{}

// NewPricingCalculator constructs a PricingCalculator.
func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// ComputePrice returns the discounted price for base under agreement at instant now.
// FIXED_AMOUNT discounts report the effective rate, which may exceed 100.
func (p *PricingCalculator) ComputePrice(base decimal.Decimal, agreement *models.Agreement, now time.Time) PriceQuote {
	if !agreement.IsUsableAt(now) {
		return PriceQuote{FinalPrice: base.Round(pricePrecision), DiscountPercentage: decimal.Zero}
	}

	var final, pct decimal.Decimal
	switch agreement.DiscountType {
	case models.DiscountTypePercentage:
		final = base.Mul(decimal.NewFromInt(1).Sub(agreement.DiscountValue.Div(hundred)))
		pct = agreement.DiscountValue
	case models.DiscountTypeFixedAmount:
		final = base.Sub(agreement.DiscountValue)
		if final.IsNegative() {
			final = decimal.Zero
		}
		if base.IsPositive() {
			pct = agreement.DiscountValue.Div(base).Mul(hundred)
		} else {
			pct = decimal.Zero
		}
	default:
		return PriceQuote{FinalPrice: base.Round(pricePrecision), DiscountPercentage: decimal.Zero}
	}

	agreementID := agreement.ID
	return PriceQuote{
		FinalPrice:         final.Round(pricePrecision),
		DiscountPercentage: pct.Round(percentPrecision),
		AgreementID:        &agreementID,
	}
}
