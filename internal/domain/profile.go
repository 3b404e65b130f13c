package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile represents an authenticated user account. Deleting a profile
// cascades to its uploads and their rows.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	APIToken  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewProfile creates a new profile with immutable pattern
func NewProfile(email, apiToken string) Profile {
	return Profile{
		ID:        uuid.New(),
		Email:     email,
		APIToken:  apiToken,
		CreatedAt: time.Now(),
	}
}
