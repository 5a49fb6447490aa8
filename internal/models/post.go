package models

import (
	"time"
)

// Post is a short piece of content, optionally with an image, owned by one user.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ImagePath     string    `gorm:"size:255" json:"-"`
	LikesCount    int       `gorm:"not null;default:0;check:chk_posts_likes_count,likes_count >= 0" json:"likes_count"`
	CommentsCount int       `gorm:"not null;default:0;check:chk_posts_comments_count,comments_count >= 0" json:"comments_count"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"user"`
	Comments      []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
	Likes         []Like    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FeedItem is a post prepared for a particular viewer.
type FeedItem struct {
	ID            uint        `json:"id"`
	Content       string      `json:"content"`
	ImageURL      *string     `json:"image_url"`
	LikesCount    int         `json:"likes_count"`
	CommentsCount int         `json:"comments_count"`
	IsLiked       bool        `json:"is_liked"`
	User          UserSummary `json:"user"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FeedPage is one bounded slice of the feed plus pagination metadata.
type FeedPage struct {
	Posts       []FeedItem `json:"posts"`
	HasNextPage bool       `json:"has_next_page"`
	TotalPages  int        `json:"total_pages"`
	Total       int64      `json:"total"`
	Page        int        `json:"page"`
	Limit       int        `json:"limit"`
}

// PostDetail is a single post with its comments.
type PostDetail struct {
	ID            uint      `json:"id"`
	Content       string    `json:"content"`
	ImageURL      *string   `json:"image_url"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	UserID        uint      `json:"user_id"`
	Comments      []Comment `json:"comments"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}
