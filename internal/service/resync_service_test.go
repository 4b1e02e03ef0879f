package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/cache"
	"Ripple/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResyncService_FlushCounters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "被点赞"})
	require.NoError(t, err)
	require.NoError(t, env.feedSvc.RecordEngagement(ctx, post.ID, cache.CounterLikes, 2))
	require.NoError(t, env.feedSvc.RecordEngagement(ctx, post.ID, cache.CounterViews, 5))

	require.NoError(t, env.resyncSvc.FlushCounters(ctx))

	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(2), stored.LikesCount)
	assert.Equal(t, int64(5), stored.ViewsCount)
	assert.Zero(t, stored.CommentsCount)

	// 脏集合与 processing 键都被消费干净
	dirty, err := env.store.SMembers(ctx, cache.PostDirtyKey)
	require.NoError(t, err)
	assert.Empty(t, dirty)
	processing, err := env.store.SMembers(ctx, cache.PostDirtyKey+":processing")
	require.NoError(t, err)
	assert.Empty(t, processing)

	// 脏集合为空时再跑一次是空操作
	require.NoError(t, env.resyncSvc.FlushCounters(ctx))
}

func TestResyncService_FlushCountersSkipsStaleMarks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// 帖子已不在缓存里的残留脏标记不应打到关系库
	b := env.store.Batch()
	b.SAdd(cache.PostDirtyKey, "ghost-post")
	require.NoError(t, b.Exec(ctx))

	require.NoError(t, env.resyncSvc.FlushCounters(ctx))

	processing, err := env.store.SMembers(ctx, cache.PostDirtyKey+":processing")
	require.NoError(t, err)
	assert.Empty(t, processing)
}

func TestResyncService_ResyncAllRebuildsColdCache(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	now := time.Now()

	// 直接灌关系库，缓存保持全冷
	alice := &model.User{ID: "alice", Username: "alice", Email: "alice@example.com", Password: "x", CreatedAt: now.Add(-48 * time.Hour)}
	bob := &model.User{ID: "bob", Username: "bob", Email: "bob@example.com", Password: "x", CreatedAt: now.Add(-47 * time.Hour)}
	require.NoError(t, env.userRepo.CreateUser(ctx, alice))
	require.NoError(t, env.userRepo.CreateUser(ctx, bob))
	require.NoError(t, env.edgeRepo.CreateUserFollow(ctx, &model.UserFollow{
		FollowerID: "bob", FollowingID: "alice", CreatedAt: now,
	}))

	old := &model.Post{
		ID: "p-old", AuthorID: "alice", Body: "旧爆款", IsPublished: true,
		LikesCount: 100, ViewsCount: 2000,
		CreatedAt: now.Add(-72 * time.Hour),
	}
	fresh := &model.Post{
		ID: "p-fresh", AuthorID: "alice", Body: "新帖", IsPublished: true,
		CreatedAt: now.Add(-time.Minute),
	}
	draft := &model.Post{
		ID: "p-draft", AuthorID: "alice", Body: "还没到点", IsPublished: false,
		CreatedAt: now,
	}
	for _, post := range []*model.Post{old, fresh, draft} {
		require.NoError(t, env.postRepo.CreatePost(ctx, post))
	}

	require.NoError(t, env.resyncSvc.ResyncAll(ctx))

	// 资料快照与索引回来了
	profile, err := env.profiles.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "alice", profile.ID)

	// 关注集合两个方向都重建
	followers, err := env.store.SMembers(ctx, cache.FollowersKey("alice"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, followers)
	followings, err := env.store.SMembers(ctx, cache.FollowingsKey("bob"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followings)

	// 作者线与关注者首页线按时间倒序，未发布的帖子不出现
	authorLine, err := env.store.LRange(ctx, cache.AuthorTimelineKey("alice"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-fresh", "p-old"}, authorLine)
	homeLine, err := env.store.LRange(ctx, cache.HomeTimelineKey("bob"), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-fresh", "p-old"}, homeLine)

	// 全局榜按重算得分排序：新帖的新鲜度加成压过三天前的高互动
	global, err := env.store.ZRevRange(ctx, cache.GlobalTimelineKey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p-fresh", "p-old"}, global)

	// 计数从关系库补齐
	view, err := env.feedSvc.GetPost(ctx, "p-old")
	require.NoError(t, err)
	assert.Equal(t, int64(100), view.LikesCount)
	assert.Equal(t, int64(2000), view.ViewsCount)

	_, err = env.feedSvc.GetPost(ctx, "p-draft")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestResyncService_ResyncAllKeepsLiveIncrements(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	authorID := registerUser(t, env, "author")

	post, err := env.feedSvc.CreatePost(ctx, authorID, &dto.PostCreateDTO{Body: "热帖"})
	require.NoError(t, err)
	require.NoError(t, env.feedSvc.RecordEngagement(ctx, post.ID, cache.CounterLikes, 7))

	// 对账先回刷脏计数，再只补缺失的统计字段，在线增量不回退
	require.NoError(t, env.resyncSvc.ResyncAll(ctx))

	view, err := env.feedSvc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), view.LikesCount)

	stored, err := env.postRepo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.LikesCount)
}
