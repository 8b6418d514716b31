package profile

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the contact details reused as the default shipping form.
type Profile struct {
	UserID    uuid.UUID `json:"user_id"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	UpdatedAt time.Time `json:"updated_at"`
}
