package dto

import "time"

// TokenRequest exchanges the configured operator API key for a bearer token.
type TokenRequest struct {
	APIKey string `json:"apiKey" binding:"required"`
}

// TokenResponse carries the issued JWT and its expiry.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
