// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered NextFilm member.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:50;not null" json:"first_name"`
	LastName  string `gorm:"size:50;not null" json:"last_name"`
	Username  string `gorm:"size:50;not null;uniqueIndex:idx_users_username" json:"username"`
	Email     string `gorm:"size:255;not null;uniqueIndex:idx_users_email" json:"email,omitempty"`
	Password  string `gorm:"size:255;not null" json:"-"`
	// Avatar is the opaque storage path; callers only ever see AvatarURL.
	Avatar    string    `gorm:"size:255" json:"-"`
	AvatarURL *string   `gorm:"-" json:"avatar_url"`
	Bio       string    `gorm:"type:text" json:"bio"`
	City      string    `gorm:"size:255" json:"city"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Posts     []Post    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews   []Review  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Likes     []Like    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Following []Follow  `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followers []Follow  `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// Sanitize clears the credential digest before the user leaves the service layer.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	u.Password = ""
	return u
}

// Public additionally drops the email, for users shown as someone else's author.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	u.Password = ""
	u.Email = ""
	return u
}

// UserSummary is the author block embedded in feed items.
type UserSummary struct {
	ID        uint    `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// UserProfile is a user as seen by a particular viewer.
type UserProfile struct {
	User
	IsFollowing    bool  `json:"is_following"`
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
}
