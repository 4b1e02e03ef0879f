package dto

import "time"

// PostCreateDTO 发帖/编辑请求体。正文最长 200 字符，图片最多 4 张。
type PostCreateDTO struct {
	Body          string     `json:"body" validate:"required,max=200"`
	Images        []string   `json:"images" validate:"omitempty,max=4,dive,required"`
	Video         string     `json:"video" validate:"omitempty,max=255"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// PostDTO 对外返回的帖子视图，元数据与互动计数合并
type PostDTO struct {
	ID            string     `json:"id"`
	AuthorID      string     `json:"author_id"`
	Body          string     `json:"body"`
	Images        []string   `json:"images"`
	Video         string     `json:"video,omitempty"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	CommentsCount int64 `json:"comments_count"`
	RepostsCount  int64 `json:"reposts_count"`
	QuotesCount   int64 `json:"quotes_count"`
	LikesCount    int64 `json:"likes_count"`
	DislikesCount int64 `json:"dislikes_count"`
	ViewsCount    int64 `json:"views_count"`
}

// EngagementDTO 互动上报请求体
type EngagementDTO struct {
	Counter string `json:"counter" validate:"required,oneof=comments reposts quotes likes dislikes views"`
	Delta   int64  `json:"delta" validate:"required"`
}
