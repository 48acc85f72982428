package user

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// AdminBootstrapSeats is how many of the first registered accounts get the
// admin role automatically.
const AdminBootstrapSeats = 2

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
