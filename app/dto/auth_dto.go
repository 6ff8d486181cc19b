// Package dto contains Data Transfer Objects for API request and response structures
package dto

// RegisterRequest represents the request payload for account registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"broker@funding.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123"`
}

// LoginRequest represents the request payload for account login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"broker@funding.com"`
	Password string `json:"password" validate:"required,min=8,max=100" example:"SecurePass123"`
}

// UserInfo represents account information returned by auth endpoints
type UserInfo struct {
	ID           uint   `json:"id" example:"123"`
	UUID         string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Email        string `json:"email" example:"broker@funding.com"`
	Plan         string `json:"plan" example:"pro"`
	SearchesUsed int    `json:"searches_used" example:"12"`

	// -1 on unlimited and admin plans
	SearchesRemaining int    `json:"searches_remaining" example:"238"`
	Limit             int    `json:"limit" example:"250"`
	CreatedAt         string `json:"created_at" example:"2025-06-15T10:30:00Z"`
}

// AuthResponse represents the successful register and login response
type AuthResponse struct {
	Token string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	User  UserInfo `json:"user"`
}

// MeResponse represents the current account lookup response
type MeResponse struct {
	User UserInfo `json:"user"`
}
