package models

import "time"

// Game is a catalog entry published by a studio account.
type Game struct {
	ID          uint       `gorm:"primaryKey" json:"game_id"`
	Title       string     `gorm:"not null;index" json:"title" validate:"required,min=1,max=200"`
	Genre       string     `gorm:"index" json:"genre"`
	Developer   string     `json:"developer"`
	Platform    string     `json:"platform"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	Description string     `json:"description"`
	Price       float64    `gorm:"not null;default:0" json:"price" validate:"gte=0"`
	Thumbnail   string     `json:"thumbnail"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	StudioID    uint       `gorm:"not null;index" json:"studio_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublishGameInput - used by studio accounts to publish a catalog entry
type PublishGameInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Genre       string     `json:"genre" validate:"max=50"`
	Developer   string     `json:"developer"`
	Platform    string     `json:"platform"`
	Tags        []string   `json:"tags"`
	Description string     `json:"description"`
	Price       float64    `json:"price" validate:"gte=0"`
	Thumbnail   string     `json:"thumbnail"`
	ReleaseDate *time.Time `json:"release_date"`
}
