package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	// ListUsers 按创建时间升序分页，批量对账使用
	ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{
		db: db,
	}
}

func (s UserRepoImpl) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s UserRepoImpl) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUserBy(ctx, "id = ?", id)
}

func (s UserRepoImpl) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUserBy(ctx, "username = ?", username)
}

func (s UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUserBy(ctx, "email = ?", email)
}

func (s UserRepoImpl) getUserBy(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s UserRepoImpl) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id).Error
}

func (s UserRepoImpl) ListUsers(ctx context.Context, offset, limit int) ([]*model.User, error) {
	var users []*model.User
	err := s.db.WithContext(ctx).
		Order("created_at asc").
		Offset(offset).Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
