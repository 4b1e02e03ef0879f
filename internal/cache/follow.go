package cache

import (
	"context"
	"fmt"
)

// FollowGraph 双向关注集合。每条关注边存两份（followers / followings），
// 两个方向都是 O(1) 查询；增删必须同时落两个集合。
type FollowGraph struct {
	store Store
}

func NewFollowGraph(store Store) *FollowGraph {
	return &FollowGraph{store: store}
}

// Follow 建立 followerID -> userID 的关注关系
func (g *FollowGraph) Follow(ctx context.Context, userID, followerID string) error {
	if userID == followerID {
		return ErrSelfFollow
	}
	b := g.store.Batch()
	b.SAdd(FollowersKey(userID), followerID)
	b.SAdd(FollowingsKey(followerID), userID)
	if err := b.Exec(ctx); err != nil {
		return fmt.Errorf("follow %s -> %s: %w", followerID, userID, err)
	}
	return nil
}

// Unfollow 解除关注并同步清理首页流中被取关作者的帖子。
// 取关后旧内容不应继续留在首页流里，这里不等对账兜底。重复调用是空操作。
func (g *FollowGraph) Unfollow(ctx context.Context, userID, followerID string) error {
	authorPosts, err := g.store.LRange(ctx, AuthorTimelineKey(userID), 0, -1)
	if err != nil {
		return fmt.Errorf("unfollow %s -> %s: %w", followerID, userID, err)
	}

	b := g.store.Batch()
	b.SRem(FollowersKey(userID), followerID)
	b.SRem(FollowingsKey(followerID), userID)
	homeKey := HomeTimelineKey(followerID)
	for _, postID := range authorPosts {
		b.LRem(homeKey, 0, postID)
	}
	if err = b.Exec(ctx); err != nil {
		return fmt.Errorf("unfollow %s -> %s: %w", followerID, userID, err)
	}
	return nil
}

// Rebuild 以关系库为准整体重建两个方向的集合，对账任务使用。
// 先删后加放在同一批次里，重建期间的并发读最多看到短暂的空集合。
func (g *FollowGraph) Rebuild(b Batch, userID string, followerIDs, followingIDs []string) {
	b.Del(FollowersKey(userID), FollowingsKey(userID))
	if len(followerIDs) > 0 {
		b.SAdd(FollowersKey(userID), followerIDs...)
	}
	if len(followingIDs) > 0 {
		b.SAdd(FollowingsKey(userID), followingIDs...)
	}
}

// Followers 返回全部关注者集合，不分页
func (g *FollowGraph) Followers(ctx context.Context, userID string) ([]string, error) {
	members, err := g.store.SMembers(ctx, FollowersKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get followers of %s: %w", userID, err)
	}
	return members, nil
}

// Following 返回该用户关注的全部账号集合
func (g *FollowGraph) Following(ctx context.Context, userID string) ([]string, error) {
	members, err := g.store.SMembers(ctx, FollowingsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get following of %s: %w", userID, err)
	}
	return members, nil
}

// IsFollowing 判断 followerID 是否关注了 userID
func (g *FollowGraph) IsFollowing(ctx context.Context, followerID, userID string) (bool, error) {
	return g.store.SIsMember(ctx, FollowingsKey(followerID), userID)
}
