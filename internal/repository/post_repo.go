package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type PostRepo interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error
	// ListPosts 返回已发布帖子，按创建时间升序分页，批量对账使用
	ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]*model.Post, error)
	// ListDueScheduled 取出到期且未发布的定时帖
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.Post, error)
	MarkPublished(ctx context.Context, id string) error
	DeletePostsByAuthor(ctx context.Context, authorID string) error
	UpdatePostCounts(ctx context.Context, id string, comments, reposts, quotes, likes, dislikes, views int64) error
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

func (s PostRepoImpl) CreatePost(ctx context.Context, post *model.Post) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s PostRepoImpl) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost 持久化编辑结果。显式选列，images/video 清空（nil）也要落库
func (s PostRepoImpl) UpdatePost(ctx context.Context, post *model.Post) error {
	return s.db.WithContext(ctx).Model(post).
		Select("body", "images", "video").
		Updates(post).Error
}

func (s PostRepoImpl) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.Post{}, "id = ?", id).Error
}

func (s PostRepoImpl) ListPosts(ctx context.Context, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Where("is_published = ?", true).
		Order("created_at asc").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s PostRepoImpl) ListPostsByAuthor(ctx context.Context, authorID string) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Where("author_id = ? AND is_published = ?", authorID, true).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s PostRepoImpl) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Where("is_published = ? AND scheduled_time IS NOT NULL AND scheduled_time <= ?", false, now).
		Order("scheduled_time asc").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s PostRepoImpl) MarkPublished(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Update("is_published", true).Error
}

func (s PostRepoImpl) DeletePostsByAuthor(ctx context.Context, authorID string) error {
	return s.db.WithContext(ctx).Delete(&model.Post{}, "author_id = ?", authorID).Error
}

func (s PostRepoImpl) UpdatePostCounts(ctx context.Context, id string, comments, reposts, quotes, likes, dislikes, views int64) error {
	return s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
		"comments_count": comments,
		"reposts_count":  reposts,
		"quotes_count":   quotes,
		"likes_count":    likes,
		"dislikes_count": dislikes,
		"views_count":    views,
	}).Error
}
