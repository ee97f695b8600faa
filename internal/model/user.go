package model

import "time"

// Role is the authorization role of a user.
type Role string

// User roles.
const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// User is a reporting citizen or an operator.
type User struct {
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ID        int64     `json:"id"`
	Points    int       `json:"points"`
}
