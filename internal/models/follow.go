package models

import (
	"time"
)

// Follow is a directed edge: FollowerID watches FollowingID's content.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false;check:chk_follows_no_self,follower_id <> following_id" json:"follower_id"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"-"`
	Following User `gorm:"foreignKey:FollowingID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
