package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchLog records one completed lead search and what it cost the account.
type SearchLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID `gorm:"type:uuid;not null;index:idx_search_logs_correlation_id" json:"correlation_id"`

	AccountID uint    `gorm:"not null;index:idx_search_logs_account_id" json:"account_id"`
	Account   Account `gorm:"foreignKey:AccountID;references:ID" json:"-"`

	BusinessType   string `gorm:"size:120;not null" json:"business_type"`
	Location       string `gorm:"size:255;not null" json:"location"`
	RequestedCount int    `gorm:"not null" json:"requested_count"`
	ReturnedCount  int    `gorm:"not null" json:"returned_count"`
	// No default tag: gorm must always write the value, false included
	WithDetails    bool   `gorm:"not null" json:"with_details"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_search_logs_created_at" json:"created_at"`
}

func (SearchLog) TableName() string {
	return "search_logs"
}

// SearchLogFilter represents filter criteria for search log queries
type SearchLogFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	AccountID     *uint
	BusinessType  *string
	Location      *string
	WithDetails   *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
