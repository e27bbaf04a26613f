package models

import "time"

// UserProfile is the lazily provisioned record for an authenticated owner.
// Email stays null until the trust provider supplies one; it is backfilled
// once and never overwritten.
type UserProfile struct {
	UID         string         `json:"uid"`
	Email       *string        `json:"email"`
	DisplayName *string        `json:"display_name"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
