// Package models contains the persistent domain types and application errors.
package models

import "time"

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a blog author. PostsCount is denormalized from posts and is
// recomputed after every post write.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"size:100" json:"display_name,omitempty"`
	Email       *string   `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	Bio         string    `gorm:"type:text" json:"bio,omitempty"`
	Role        string    `gorm:"size:20;not null;default:user" json:"role"`
	PostsCount  int       `gorm:"not null;default:0" json:"posts_count"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
