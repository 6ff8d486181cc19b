package dto

// ErrorResponse is the uniform error payload returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error" example:"Monthly search quota exceeded"`
	Code  string `json:"code,omitempty" example:"QUOTA_EXCEEDED"`

	// Populated only on quota rejections so clients can suggest a smaller count
	SearchesRemaining *int `json:"searches_remaining,omitempty" example:"3"`
}

// HealthResponse is the liveness payload served at the root path
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Service   string `json:"service" example:"mca-proxy"`
	Version   string `json:"version" example:"1.0.0"`
	Timestamp string `json:"timestamp" example:"2025-06-15T10:30:00Z"`
}
