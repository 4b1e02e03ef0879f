package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/cache"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_CreateProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	profile, err := env.profileSvc.CreateProfile(ctx, &dto.RegisterDTO{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret-password",
		Bio:      "你好",
	})
	require.NoError(t, err)
	require.NotEmpty(t, profile.ID)
	assert.Equal(t, "alice", profile.Username)

	// 注册即写缓存快照与索引
	cached, err := env.profiles.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, profile.ID, cached.ID)

	_, err = env.profileSvc.CreateProfile(ctx, &dto.RegisterDTO{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret-password",
	})
	assert.ErrorIs(t, err, ErrUserUsernameExist)

	_, err = env.profileSvc.CreateProfile(ctx, &dto.RegisterDTO{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "secret-password",
	})
	assert.ErrorIs(t, err, ErrUserEmailExist)

	_, err = env.profileSvc.CreateProfile(ctx, &dto.RegisterDTO{
		Username: "x",
		Email:    "not-an-email",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestProfileService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	registerUser(t, env, "alice")

	// 用户名或邮箱都能登录
	token, profile, err := env.profileSvc.Login(ctx, "alice", "secret-password")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "alice", profile.Username)

	_, _, err = env.profileSvc.Login(ctx, "alice@example.com", "secret-password")
	require.NoError(t, err)

	_, _, err = env.profileSvc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	_, _, err = env.profileSvc.Login(ctx, "nobody", "secret-password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileService_GetProfileBackfillsCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID := registerUser(t, env, "alice")

	// 清掉缓存快照，读路径应回源并回填
	require.NoError(t, env.store.Del(ctx, cache.ProfileKey(userID)))

	profile, err := env.profileSvc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)

	cached, err := env.profiles.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "alice", cached.Username)

	_, err = env.profileSvc.GetProfile(ctx, "no-such-user")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileService_SearchUsernames(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	registerUser(t, env, "alice")
	registerUser(t, env, "alicia")
	registerUser(t, env, "bob")

	matches, err := env.profileSvc.SearchUsernames(ctx, "ALI")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "alicia"}, matches)
}

func TestProfileService_DeleteProfileCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	aliceID := registerUser(t, env, "alice")
	bobID := registerUser(t, env, "bob")
	require.NoError(t, env.feedSvc.Follow(ctx, aliceID, bobID))

	post, err := env.feedSvc.CreatePost(ctx, aliceID, &dto.PostCreateDTO{Body: "一切都会被清掉"})
	require.NoError(t, err)

	require.NoError(t, env.profileSvc.DeleteProfile(ctx, aliceID))

	// 关系库：用户、帖子、关注边全部移除
	user, err := env.userRepo.GetUser(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, user)
	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
	edge, err := env.edgeRepo.GetUserFollow(ctx, bobID, aliceID)
	require.NoError(t, err)
	assert.Nil(t, edge)

	// 缓存：资料、索引、帖子、关注者首页流同步消失
	cached, err := env.profiles.Get(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, cached)
	taken, err := env.profiles.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, taken)

	_, err = env.feedSvc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	home, err := env.store.LRange(ctx, cache.HomeTimelineKey(bobID), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, home)

	err = env.profileSvc.DeleteProfile(ctx, aliceID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
