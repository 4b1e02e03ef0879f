package model

import (
	"time"
)

type Post struct {
	ID            string     `gorm:"primaryKey;type:char(36)"`
	AuthorID      string     `gorm:"type:char(36);not null;index:idx_author_id" json:"author_id"`
	Body          string     `gorm:"type:varchar(200);not null" json:"body"`
	Images        *string    `gorm:"type:text" json:"images"` // JSON 数组，最多 4 个对象存储引用
	Video         *string    `gorm:"type:varchar(255)" json:"video"`
	ScheduledTime *time.Time `gorm:"index:idx_scheduled_time" json:"scheduled_time"`
	IsPublished   bool       `gorm:"type:tinyint(1);not null;default:0" json:"is_published"`

	// 互动计数（由计数回刷任务从缓存同步）
	CommentsCount int64 `gorm:"not null;default:0" json:"comments_count"`
	RepostsCount  int64 `gorm:"not null;default:0" json:"reposts_count"`
	QuotesCount   int64 `gorm:"not null;default:0" json:"quotes_count"`
	LikesCount    int64 `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int64 `gorm:"not null;default:0" json:"dislikes_count"`
	ViewsCount    int64 `gorm:"not null;default:0" json:"views_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author User `gorm:"foreignKey:AuthorID;references:ID"`
}

func (Post) TableName() string {
	return "posts"
}
