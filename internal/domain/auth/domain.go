package auth

import "time"

// RefreshToken rows hold only the sha256 of the raw token; the raw value
// lives exclusively in the client cookie.
type RefreshToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}
