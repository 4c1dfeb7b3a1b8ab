package models

import "time"

// Role values known to the authorization layer.
const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
	RoleAdmin     = "admin"
)

// KnownRole reports whether the given role belongs to the known role set.
func KnownRole(role string) bool {
	switch role {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents an account that can authenticate against the API.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:128;not null" json:"first_name"`
	LastName     string    `gorm:"size:128;not null" json:"last_name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null" json:"role"`
	Active       bool      `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the display name used in token claims.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
