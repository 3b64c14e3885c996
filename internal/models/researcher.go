package models

import "time"

type Researcher struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Field       string    `json:"field"`
	Bio         *string   `json:"bio,omitempty"`
	Email       *string   `json:"email,omitempty"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	DisplayRank int       `json:"display_rank"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
