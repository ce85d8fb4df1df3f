package models

import "time"

// User is the identity returned by the auth backend.
type User struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// Session is an issued access/refresh token pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Profile is a row of the profiles table. Its columns are owned by the
// backend, so it is kept as a loose map.
type Profile map[string]any
