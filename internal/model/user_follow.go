package model

import "time"

type UserFollow struct {
	FollowerID  string    `gorm:"primaryKey;type:char(36)" json:"followerId"`
	FollowingID string    `gorm:"primaryKey;type:char(36);index:idx_following_id" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (UserFollow) TableName() string {
	return "user_follows"
}
