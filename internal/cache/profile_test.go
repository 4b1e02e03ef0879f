package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileFixture struct {
	store    *MemoryStore
	follows  *FollowGraph
	posts    *PostCache
	profiles *Profiles
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	store := NewMemoryStore()
	follows := NewFollowGraph(store)
	timelines := NewTimelines(store, TimelineCaps{})
	posts := NewPostCache(store, timelines, follows)
	return &profileFixture{
		store:    store,
		follows:  follows,
		posts:    posts,
		profiles: NewProfiles(store, follows, posts),
	}
}

func testProfile(id, username, email string) *CachedProfile {
	return &CachedProfile{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Avatar:       username + ".png",
		CreatedAt:    time.Now(),
	}
}

func TestProfiles_CreateWritesSnapshotAndIndexes(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	require.NoError(t, f.profiles.Create(ctx, testProfile("u1", "alice", "alice@example.com")))

	got, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice.png", got.Avatar)

	taken, err := f.profiles.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = f.profiles.EmailTaken(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	byName, err := f.profiles.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "u1", byName.ID)
}

func TestProfiles_GetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	got, err := f.profiles.Get(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)

	byName, err := f.profiles.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, byName)
}

func TestProfiles_SearchUsernames(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	for _, p := range []struct{ id, name, email string }{
		{"u1", "alice", "a@example.com"},
		{"u2", "alicia", "b@example.com"},
		{"u3", "bob", "c@example.com"},
	} {
		require.NoError(t, f.profiles.Create(ctx, testProfile(p.id, p.name, p.email)))
	}

	got, err := f.profiles.SearchUsernames(ctx, "ALI")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "alicia"}, got, "检索大小写不敏感")

	got, err = f.profiles.SearchUsernames(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProfiles_AvatarURL(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	require.NoError(t, f.profiles.Create(ctx, testProfile("u1", "alice", "a@example.com")))

	avatar, err := f.profiles.AvatarURL(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice.png", avatar)

	avatar, err = f.profiles.AvatarURL(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, avatar)
}

func TestProfiles_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t)

	require.NoError(t, f.profiles.Create(ctx, testProfile("u1", "alice", "a@example.com")))

	// alice 被 fan 关注，自己关注 idol
	require.NoError(t, f.follows.Follow(ctx, "u1", "fan"))
	require.NoError(t, f.follows.Follow(ctx, "idol", "u1"))

	_, err := f.posts.Publish(ctx, testPost("p1", "u1", time.Now()))
	require.NoError(t, err)

	require.NoError(t, f.profiles.Delete(ctx, "u1", "alice", "a@example.com"))

	// 资料与索引清空
	got, err := f.profiles.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
	taken, err := f.profiles.UsernameTaken(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, taken)
	taken, err = f.profiles.EmailTaken(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, taken)

	// 帖子连同关注者首页流一起清理
	view, err := f.posts.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, view)
	home, err := f.store.LRange(ctx, HomeTimelineKey("fan"), 0, -1)
	require.NoError(t, err)
	assert.Empty(t, home)

	// 双向关注边退出
	following, err := f.follows.Following(ctx, "fan")
	require.NoError(t, err)
	assert.Empty(t, following)
	followers, err := f.follows.Followers(ctx, "idol")
	require.NoError(t, err)
	assert.Empty(t, followers)
}
