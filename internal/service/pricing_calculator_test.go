package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-adp-api/internal/models"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func agreementFixture(kind models.DiscountType, value string, start time.Time, end *time.Time) *models.Agreement {
	return &models.Agreement{
		ID:            "agr-1",
		SchoolID:      "school-1",
		DiscountType:  kind,
		DiscountValue: dec(value),
		StartDate:     start,
		EndDate:       end,
		IsActive:      true,
	}
}

func TestComputePriceWithoutAgreement(t *testing.T) {
	calc := NewPricingCalculator()
	quote := calc.ComputePrice(dec("450"), nil, time.Now())
	assert.True(t, quote.FinalPrice.Equal(dec("450")))
	assert.True(t, quote.DiscountPercentage.IsZero())
	assert.Nil(t, quote.AgreementID)
}

func TestComputePricePercentage(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	nextYear := now.AddDate(1, 0, 0)
	calc := NewPricingCalculator()

	cases := []struct {
		base, pct, want string
	}{
		{"350", "15", "297.50"},
		{"450", "0", "450"},
		{"450", "100", "0"},
		{"199.99", "12.5", "174.99"},
	}
	for _, tc := range cases {
		quote := calc.ComputePrice(dec(tc.base), agreementFixture(models.DiscountTypePercentage, tc.pct, now.AddDate(0, -1, 0), &nextYear), now)
		assert.True(t, quote.FinalPrice.Equal(dec(tc.want)), "base %s pct %s got %s", tc.base, tc.pct, quote.FinalPrice)
		assert.True(t, quote.DiscountPercentage.Equal(dec(tc.pct)))
		require.NotNil(t, quote.AgreementID)
		assert.Equal(t, "agr-1", *quote.AgreementID)
	}
}

func TestComputePriceFixedAmount(t *testing.T) {
	now := time.Now()
	calc := NewPricingCalculator()

	quote := calc.ComputePrice(dec("400"), agreementFixture(models.DiscountTypeFixedAmount, "50", now.Add(-time.Hour), nil), now)
	assert.True(t, quote.FinalPrice.Equal(dec("350")))
	assert.True(t, quote.DiscountPercentage.Equal(dec("12.5")))

	quote = calc.ComputePrice(dec("300"), agreementFixture(models.DiscountTypeFixedAmount, "100", now.Add(-time.Hour), nil), now)
	assert.True(t, quote.DiscountPercentage.Equal(dec("33.3333")), "got %s", quote.DiscountPercentage)
}

func TestComputePriceFixedAmountAboveBaseIsNotClamped(t *testing.T) {
	now := time.Now()
	quote := NewPricingCalculator().ComputePrice(dec("100"), agreementFixture(models.DiscountTypeFixedAmount, "150", now.Add(-time.Hour), nil), now)
	assert.True(t, quote.FinalPrice.IsZero())
	assert.True(t, quote.DiscountPercentage.Equal(dec("150")))
}

func TestComputePriceFixedAmountBeyondThousandPercent(t *testing.T) {
	now := time.Now()
	quote := NewPricingCalculator().ComputePrice(dec("10"), agreementFixture(models.DiscountTypeFixedAmount, "150", now.Add(-time.Hour), nil), now)
	assert.True(t, quote.FinalPrice.IsZero())
	assert.True(t, quote.DiscountPercentage.Equal(dec("1500")), "got %s", quote.DiscountPercentage)
}

func TestComputePriceFixedAmountZeroBase(t *testing.T) {
	now := time.Now()
	quote := NewPricingCalculator().ComputePrice(decimal.Zero, agreementFixture(models.DiscountTypeFixedAmount, "50", now.Add(-time.Hour), nil), now)
	assert.True(t, quote.FinalPrice.IsZero())
	assert.True(t, quote.DiscountPercentage.IsZero())
}

func TestComputePriceIgnoresUnusableAgreements(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	calc := NewPricingCalculator()

	expired := agreementFixture(models.DiscountTypePercentage, "20", now.AddDate(-1, 0, 0), &past)
	inactive := agreementFixture(models.DiscountTypePercentage, "20", now.AddDate(-1, 0, 0), nil)
	inactive.IsActive = false
	future := agreementFixture(models.DiscountTypeFixedAmount, "20", now.Add(time.Hour), nil)
	endsNow := agreementFixture(models.DiscountTypePercentage, "20", now.AddDate(-1, 0, 0), &now)

	for _, agreement := range []*models.Agreement{expired, inactive, future, endsNow} {
		quote := calc.ComputePrice(dec("500"), agreement, now)
		assert.True(t, quote.FinalPrice.Equal(dec("500")))
		assert.True(t, quote.DiscountPercentage.IsZero())
		assert.Nil(t, quote.AgreementID)
	}
}
