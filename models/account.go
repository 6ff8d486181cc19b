// Package models contains domain entities and business models for the lead finder service
package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_accounts_uuid" json:"uuid"`

	// Credentials (email is stored lowercase)
	Email        string `gorm:"size:255;not null;uniqueIndex:idx_accounts_email" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	// Subscription and monthly usage
	Plan           string    `gorm:"size:20;not null;default:'pro';index:idx_accounts_plan" json:"plan"`
	SearchesUsed   int       `gorm:"not null;default:0" json:"searches_used"`
	UsageResetDate time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"usage_reset_date"`

	// Timestamps
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relations
	SearchLogs []SearchLog `gorm:"foreignKey:AccountID" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Email         *string
	Plan          *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// MonthlyResetDue reports whether the wall clock has advanced past the stored
// reset date's calendar month. Only the (year, month) components take part in
// the comparison; the day of month is deliberately ignored.
func (a *Account) MonthlyResetDue(now time.Time) bool {
	now = now.UTC()
	reset := a.UsageResetDate.UTC()
	if now.Year() != reset.Year() {
		return now.Year() > reset.Year()
	}
	return now.Month() > reset.Month()
}

// WithMonthlyReset applies the lazy monthly reset and reports whether anything
// changed. The receiver is copied; persisting the result is the caller's job,
// so re-applying the reset is always safe.
func (a Account) WithMonthlyReset(now time.Time) (Account, bool) {
	if !a.MonthlyResetDue(now) {
		return a, false
	}
	a.SearchesUsed = 0
	a.UsageResetDate = now.UTC()
	return a, true
}
