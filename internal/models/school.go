package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// School is an institution students may belong to.
type School struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DiscountType identifies how an agreement discount is applied.
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "PERCENTAGE"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// Agreement is the discount contract held by a school.
type Agreement struct {
	ID            string          `db:"id" json:"id"`
	SchoolID      string          `db:"school_id" json:"school_id"`
	DiscountType  DiscountType    `db:"discount_type" json:"discount_type"`
	DiscountValue decimal.Decimal `db:"discount_value" json:"discount_value"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	EndDate       *time.Time      `db:"end_date" json:"end_date,omitempty"`
	IsActive      bool            `db:"is_active" json:"is_active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// IsUsableAt reports whether the agreement is active and now falls within [start, end).
// An open end date never expires.
func (a *Agreement) IsUsableAt(now time.Time) bool {
	if a == nil || !a.IsActive {
		return false
	}
	if now.Before(a.StartDate) {
		return false
	}
	if a.EndDate != nil && !now.Before(*a.EndDate) {
		return false
	}
	return true
}
