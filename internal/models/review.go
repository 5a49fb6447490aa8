package models

import (
	"time"
)

const (
	// MinRating is the lowest star rating a review may carry.
	MinRating = 1
	// MaxRating is the highest star rating a review may carry.
	MaxRating = 5
)

// Review is a user's rating and write-up of a movie from the external catalog.
type Review struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImagePath   string    `gorm:"size:255" json:"-"`
	ImageURL    *string   `gorm:"-" json:"image_url"`
	Rating      int       `gorm:"not null;default:1;check:chk_reviews_rating,rating BETWEEN 1 AND 5" json:"rating"`
	MovieID     string    `gorm:"size:255;not null;index" json:"movie_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MovieRating aggregates review ratings for one movie.
type MovieRating struct {
	MovieID string  `json:"movie_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}
