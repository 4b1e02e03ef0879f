package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/cache"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	profile, err := env.profileSvc.CreateProfile(context.Background(), &dto.RegisterDTO{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	return profile.ID
}

func TestFeedService_CreatePostFansOutToFollowers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	authorID := registerUser(t, env, "author")
	fanID := registerUser(t, env, "fan")
	require.NoError(t, env.feedSvc.Follow(ctx, authorID, fanID))

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "第一条动态"})
	require.NoError(t, err)
	require.NotEmpty(t, post.ID)
	assert.Zero(t, post.LikesCount)

	home, err := env.feedSvc.GetHomeTimeline(ctx, fanID, 0, -1)
	require.NoError(t, err)
	require.Len(t, home, 1)
	assert.Equal(t, post.ID, home[0].ID)
	assert.Equal(t, "第一条动态", home[0].Body)

	author, err := env.feedSvc.GetAuthorTimeline(ctx, authorID, 0, -1)
	require.NoError(t, err)
	require.Len(t, author, 1)
	assert.Equal(t, post.ID, author[0].ID)
}

func TestFeedService_CreatePostValidatesBody(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	_, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: ""})
	assert.ErrorIs(t, err, ErrParamInvalid)

	_, err = env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{
		Body:   "太多图了",
		Images: []string{"1.png", "2.png", "3.png", "4.png", "5.png"},
	})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestFeedService_ScheduledPostIsDeferred(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	future := time.Now().Add(2 * time.Hour)
	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{
		Body:          "定时内容",
		ScheduledTime: &future,
	})
	require.NoError(t, err)

	author, err := env.feedSvc.GetAuthorTimeline(ctx, authorID, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, author, "定时帖到点前不进任何时间线")

	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsPublished)

	// 到点发布
	require.NoError(t, env.feedSvc.PublishScheduled(ctx, post.ID))

	author, err = env.feedSvc.GetAuthorTimeline(ctx, authorID, 0, -1)
	require.NoError(t, err)
	require.Len(t, author, 1)

	stored, err = env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublished)

	// 已发布的帖子不能再次走定时发布
	err = env.feedSvc.PublishScheduled(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotScheduled)
}

func TestFeedService_NewPostNotificationRequiresAvatar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	authorID := registerUser(t, env, "author")
	fanID := registerUser(t, env, "fan")
	require.NoError(t, env.feedSvc.Follow(ctx, authorID, fanID))

	// 作者无头像：扇出照常，但不派发通知
	_, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "无头像"})
	require.NoError(t, err)
	assert.Empty(t, env.notifier.calls)

	// 补上头像后再发帖，关注者收到 new_post 通知
	require.NoError(t, env.profiles.Create(ctx, &cache.CachedProfile{
		ID:       authorID,
		Username: "author",
		Email:    "author@example.com",
		Avatar:   "avatars/author.png",
	}))

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "有头像"})
	require.NoError(t, err)

	require.Len(t, env.notifier.calls, 1)
	payload := env.notifier.calls[0]
	assert.Equal(t, "new_post", payload["event"])
	assert.Equal(t, post.ID, payload["post_id"])
	assert.Equal(t, authorID, payload["author_id"])
	assert.Equal(t, "avatars/author.png", payload["avatar"])
	assert.Equal(t, []string{fanID}, env.notifier.sent[0])
}

func TestFeedService_UpdatePostChecksOwnership(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")
	otherID := registerUser(t, env, "other")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "原始正文"})
	require.NoError(t, err)

	err = env.feedSvc.UpdatePost(ctx, otherID, post.ID, &dto.PostCreateDTO{Body: "篡改"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	require.NoError(t, env.feedSvc.UpdatePost(ctx, authorID, post.ID, &dto.PostCreateDTO{Body: "编辑后"}))

	got, err := env.feedSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "编辑后", got.Body)
}

func TestFeedService_UpdatePostClearsRemovedMedia(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{
		Body:   "带媒体",
		Images: []string{"a.png", "b.png"},
		Video:  "clip.mp4",
	})
	require.NoError(t, err)

	// 编辑成纯文本：媒体清空要同时落库和重缓存
	require.NoError(t, env.feedSvc.UpdatePost(ctx, authorID, post.ID, &dto.PostCreateDTO{Body: "纯文本"}))

	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.Images)
	assert.Nil(t, stored.Video)

	got, err := env.feedSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)
	assert.Empty(t, got.Video)
}

func TestFeedService_DeletePost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")
	fanID := registerUser(t, env, "fan")
	require.NoError(t, env.feedSvc.Follow(ctx, authorID, fanID))

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "要删的"})
	require.NoError(t, err)

	err = env.feedSvc.DeletePost(ctx, fanID, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound, "非作者不能删帖")

	require.NoError(t, env.feedSvc.DeletePost(ctx, authorID, post.ID))

	_, err = env.feedSvc.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	home, err := env.feedSvc.GetHomeTimeline(ctx, fanID, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, home)

	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestFeedService_FollowRules(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	aliceID := registerUser(t, env, "alice")
	bobID := registerUser(t, env, "bob")

	err := env.feedSvc.Follow(ctx, aliceID, aliceID)
	assert.ErrorIs(t, err, ErrUserFollowSelf)

	require.NoError(t, env.feedSvc.Follow(ctx, aliceID, bobID))
	err = env.feedSvc.Follow(ctx, aliceID, bobID)
	assert.ErrorIs(t, err, ErrUserFollowExist)

	ok, err := env.feedSvc.IsFollowing(ctx, bobID, aliceID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFeedService_UnfollowPurgesHomeTimeline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")
	fanID := registerUser(t, env, "fan")
	require.NoError(t, env.feedSvc.Follow(ctx, authorID, fanID))

	_, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "会被清掉"})
	require.NoError(t, err)

	require.NoError(t, env.feedSvc.Unfollow(ctx, authorID, fanID))

	ids, err := env.store.LRange(ctx, cache.HomeTimelineKey(fanID), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, ids, "取关后旧帖同步清出首页流")

	// 重复取关是空操作
	require.NoError(t, env.feedSvc.Unfollow(ctx, authorID, fanID))
}

func TestFeedService_RecordEngagement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "计数"})
	require.NoError(t, err)

	err = env.feedSvc.RecordEngagement(ctx, post.ID, "stars", 1)
	assert.ErrorIs(t, err, ErrParamInvalid)

	require.NoError(t, env.feedSvc.RecordEngagement(ctx, post.ID, cache.CounterLikes, 3))

	got, err := env.feedSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.LikesCount)
}

func TestFeedService_HomeTimelineFallsBackToGlobal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")
	loner := registerUser(t, env, "loner")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "热门内容"})
	require.NoError(t, err)

	home, err := env.feedSvc.GetHomeTimeline(ctx, loner, 0, -1)
	require.NoError(t, err)
	require.Len(t, home, 1, "没有关注的用户看到全局榜内容")
	assert.Equal(t, post.ID, home[0].ID)
}
