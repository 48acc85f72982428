package pushtoken

import "time"

// Token binds a user to their current push-delivery address. One live address
// per user: a new registration for the same user overwrites the old row.
type Token struct {
	UserID    int64
	Token     string
	UpdatedAt time.Time
}
