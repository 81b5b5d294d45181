package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog entry optionally chained to a prerequisite course.
type Course struct {
	ID               string          `db:"id" json:"id"`
	Code             string          `db:"code" json:"code"`
	Name             string          `db:"name" json:"name"`
	PreviousCourseID *string         `db:"previous_course_id" json:"previous_course_id,omitempty"`
	BasePrice        decimal.Decimal `db:"base_price" json:"base_price"`
	DurationWeeks    *int            `db:"duration_weeks" json:"duration_weeks,omitempty"`
	TotalHours       *int            `db:"total_hours" json:"total_hours,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Level is an ordered stage within a course.
type Level struct {
	ID            string          `db:"id" json:"id"`
	CourseID      string          `db:"course_id" json:"course_id"`
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	OrderIndex    int             `db:"order_index" json:"order_index"`
	BasePrice     decimal.Decimal `db:"base_price" json:"base_price"`
	DurationWeeks int             `db:"duration_weeks" json:"duration_weeks"`
	TotalHours    int             `db:"total_hours" json:"total_hours"`
	IsDefault     bool            `db:"is_default" json:"is_default"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}
