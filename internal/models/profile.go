package models

import "time"

// Profile is the billing-facing slice of a user account. Identity itself
// lives in the external auth provider; this row only carries the
// subscription plan and the remaining free-interview allowance.
type Profile struct {
	UserID       string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName     string `gorm:"column:full_name;type:text" json:"full_name"`
	Subscription Plan   `gorm:"column:subscription;type:text" json:"subscription"` // free|premium

	InterviewsRemaining int `gorm:"column:interviews_remaining;type:integer" json:"interviews_remaining"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
