package auth

import (
	"time"

	"github.com/google/uuid"
)

// Learner is an authenticated guest learner.
type Learner struct {
	ID          uuid.UUID
	DisplayName string
	CreatedAt   time.Time
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// GuestRequest creates an anonymous learner. DisplayName is optional.
type GuestRequest struct {
	DisplayName string `json:"display_name" validate:"max=40"`
}

const defaultDisplayName = "Student"
