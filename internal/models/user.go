package models

import "time"

type User struct {
	ID                  int64      `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	Role                Role       `json:"role"`
	IsActive            bool       `json:"is_active"`
	AvatarURL           *string    `json:"avatar_url,omitempty"`
	PasswordHash        string     `json:"-"`
	ResetTokenHash      *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Profile is the projection of a user returned to clients. It never
// carries the password hash or reset-token fields.
type Profile struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      Role    `json:"role"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}
