package user

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record. FullName is the sign-up display name; the
// editable contact details live in the profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is what sign-in, sign-up and refresh hand back to the client.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
	TokenID     string    `json:"-"`
}
