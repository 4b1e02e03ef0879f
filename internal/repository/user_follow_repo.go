package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserFollowRepo interface {
	CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error
	DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error
	GetUserFollow(ctx context.Context, followerID, followingID string) (*model.UserFollow, error)
	// GetUserFollowing 该用户关注的全部边，对账重建 followings 集合使用
	GetUserFollowing(ctx context.Context, followerID string) ([]*model.UserFollow, error)
	GetUserFollowers(ctx context.Context, followingID string) ([]*model.UserFollow, error)
	// DeleteAllForUser 删除该用户两个方向上的全部关注边（注销级联）
	DeleteAllForUser(ctx context.Context, userID string) error
}

type UserFollowRepoImpl struct {
	db *gorm.DB
}

func NewUserFollowRepo(db *gorm.DB) UserFollowRepo {
	return &UserFollowRepoImpl{
		db: db,
	}
}

func (s UserFollowRepoImpl) CreateUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	return s.db.WithContext(ctx).Create(userFollow).Error
}

func (s UserFollowRepoImpl) DeleteUserFollow(ctx context.Context, userFollow *model.UserFollow) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", userFollow.FollowerID, userFollow.FollowingID).
		Delete(&model.UserFollow{}).Error
}

func (s UserFollowRepoImpl) GetUserFollow(ctx context.Context, followerID, followingID string) (*model.UserFollow, error) {
	var userFollow model.UserFollow
	err := s.db.WithContext(ctx).
		First(&userFollow, "follower_id = ? AND following_id = ?", followerID, followingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userFollow, nil
}

func (s UserFollowRepoImpl) GetUserFollowing(ctx context.Context, followerID string) ([]*model.UserFollow, error) {
	var follows []*model.UserFollow
	err := s.db.WithContext(ctx).Where("follower_id = ?", followerID).Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return follows, nil
}

func (s UserFollowRepoImpl) GetUserFollowers(ctx context.Context, followingID string) ([]*model.UserFollow, error) {
	var follows []*model.UserFollow
	err := s.db.WithContext(ctx).Where("following_id = ?", followingID).Find(&follows).Error
	if err != nil {
		return nil, err
	}
	return follows, nil
}

func (s UserFollowRepoImpl) DeleteAllForUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&model.UserFollow{}).Error
}
