package dto

// SearchRequest represents the query parameters of a lead search
type SearchRequest struct {
	BusinessType string `query:"type" validate:"required,min=2,max=120" example:"restaurant"`
	Location     string `query:"location" validate:"required,min=2,max=255" example:"Miami, FL"`

	// Clamped server-side to [1, 25]; absent or unparsable values fall back to 10
	Limit string `query:"limit" example:"10"`

	// Defaults to true; the literal string "false" disables enrichment
	Details string `query:"details" example:"true"`
}

// LeadDTO represents one business lead in a search response
type LeadDTO struct {
	Name    string   `json:"name" example:"Joe's Pizza"`
	Address string   `json:"address" example:"123 Ocean Dr, Miami, FL 33139"`
	Phone   *string  `json:"phone" example:"(305) 555-0181"`
	Website *string  `json:"website" example:"https://joespizza.com"`
	PlaceID string   `json:"place_id" example:"ChIJN1t_tDeuEmsRUsoyG83frY4"`
	Rating  *float64 `json:"rating" example:"4.5"`
}

// SearchResponse represents the successful lead search response
type SearchResponse struct {
	Results           []LeadDTO `json:"results"`
	SearchesUsed      int       `json:"searches_used" example:"13"`
	SearchesRemaining int       `json:"searches_remaining" example:"237"`
	Limit             int       `json:"limit" example:"250"`
}

// SearchHistoryItem represents one past search in the history listing
type SearchHistoryItem struct {
	CorrelationID  string `json:"correlation_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	BusinessType   string `json:"business_type" example:"restaurant"`
	Location       string `json:"location" example:"Miami, FL"`
	RequestedCount int    `json:"requested_count" example:"10"`
	ReturnedCount  int    `json:"returned_count" example:"8"`
	WithDetails    bool   `json:"with_details" example:"true"`
	CreatedAt      string `json:"created_at" example:"2025-06-15T10:30:00Z"`
}

// SearchHistoryResponse represents the paged search history response
type SearchHistoryResponse struct {
	Items    []SearchHistoryItem `json:"items"`
	Total    int64               `json:"total" example:"42"`
	Page     int                 `json:"page" example:"1"`
	PageSize int                 `json:"page_size" example:"20"`
}
