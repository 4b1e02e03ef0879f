package service

import (
	"Ripple/internal/cache"
	"Ripple/internal/model"
	"Ripple/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	resyncPageSize    = 200
	resyncConcurrency = 8
)

// ResyncService 缓存与关系库的对账。
// FlushCounters 把脏计数刷回库，ResyncAll 以库为准整体重建缓存。
type ResyncService interface {
	FlushCounters(ctx context.Context) error
	ResyncAll(ctx context.Context) error
}

type resyncServiceImpl struct {
	userRepo   repository.UserRepo
	postRepo   repository.PostRepo
	followRepo repository.UserFollowRepo
	store      cache.Store
	posts      *cache.PostCache
	timelines  *cache.Timelines
	follows    *cache.FollowGraph
	profiles   *cache.Profiles
}

func NewResyncService(
	userRepo repository.UserRepo,
	postRepo repository.PostRepo,
	followRepo repository.UserFollowRepo,
	store cache.Store,
	posts *cache.PostCache,
	timelines *cache.Timelines,
	follows *cache.FollowGraph,
	profiles *cache.Profiles,
) ResyncService {
	return &resyncServiceImpl{
		userRepo:   userRepo,
		postRepo:   postRepo,
		followRepo: followRepo,
		store:      store,
		posts:      posts,
		timelines:  timelines,
		follows:    follows,
		profiles:   profiles,
	}
}

// FlushCounters 把脏集合里的帖子计数批量写回关系库。
// 先 RENAME 到 processing 键再消费，新产生的脏标记不会丢。
func (s *resyncServiceImpl) FlushCounters(ctx context.Context) error {
	processingKey := cache.PostDirtyKey + ":processing"
	err := s.store.Rename(ctx, cache.PostDirtyKey, processingKey)
	if err != nil {
		if errors.Is(err, cache.ErrNoSuchKey) {
			return nil
		}
		return fmt.Errorf("rename dirty set: %w", err)
	}

	postIDs, err := s.store.SMembers(ctx, processingKey)
	if err != nil {
		return fmt.Errorf("read dirty set: %w", err)
	}

	flushed := 0
	for _, postID := range postIDs {
		stats, ok, sErr := s.posts.GetStats(ctx, postID)
		if sErr != nil {
			log.ErrorContext(ctx, "read post stats failed", "post_id", postID, "err", sErr)
			continue
		}
		// 帖子已删除但脏标记残留，跳过即可
		if !ok {
			continue
		}
		sErr = s.postRepo.UpdatePostCounts(ctx, postID,
			stats.Comments, stats.Reposts, stats.Quotes, stats.Likes, stats.Dislikes, stats.Views)
		if sErr != nil {
			log.ErrorContext(ctx, "flush post counts failed", "post_id", postID, "err", sErr)
			continue
		}
		flushed++
	}

	if err = s.store.Del(ctx, processingKey); err != nil {
		return fmt.Errorf("clear processing set: %w", err)
	}
	log.InfoContext(ctx, "counter flush finished", "dirty", len(postIDs), "flushed", flushed)
	return nil
}

// ResyncAll 整体对账：先刷回脏计数，再重建帖子缓存与全局榜，
// 最后按用户重建资料、关注集合和两类时间线。
func (s *resyncServiceImpl) ResyncAll(ctx context.Context) error {
	started := time.Now()
	if err := s.FlushCounters(ctx); err != nil {
		return err
	}
	postCount, err := s.resyncPosts(ctx)
	if err != nil {
		return err
	}
	userCount, err := s.resyncUsers(ctx)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "full resync finished",
		"posts", postCount, "users", userCount, "elapsed", time.Since(started).String())
	return nil
}

// resyncPosts 逐页回放已发布帖子：重写元数据、补齐计数、重算全局榜得分
func (s *resyncServiceImpl) resyncPosts(ctx context.Context) (int, error) {
	now := time.Now()
	total := 0
	for offset := 0; ; offset += resyncPageSize {
		page, err := s.postRepo.ListPosts(ctx, offset, resyncPageSize)
		if err != nil {
			return total, fmt.Errorf("list posts at %d: %w", offset, err)
		}
		if len(page) == 0 {
			return total, nil
		}

		for _, post := range page {
			cached, cErr := toCachedPost(post)
			if cErr != nil {
				log.ErrorContext(ctx, "decode post media failed", "post_id", post.ID, "err", cErr)
				continue
			}
			if cErr = s.posts.Recache(ctx, cached); cErr != nil {
				return total, cErr
			}
			stats := cache.Stats{
				Comments: post.CommentsCount,
				Reposts:  post.RepostsCount,
				Quotes:   post.QuotesCount,
				Likes:    post.LikesCount,
				Dislikes: post.DislikesCount,
				Views:    post.ViewsCount,
			}
			// 计数只补缺失的，避免覆盖刚发生的在线增量
			if cErr = s.posts.SeedStats(ctx, post.ID, stats); cErr != nil {
				return total, cErr
			}
			liveStats, ok, cErr := s.posts.GetStats(ctx, post.ID)
			if cErr != nil {
				return total, cErr
			}
			if !ok {
				liveStats = stats
			}
			b := s.store.Batch()
			s.timelines.UpsertGlobal(b, post.ID, cache.Score(liveStats, post.CreatedAt, now))
			if cErr = b.Exec(ctx); cErr != nil {
				return total, cErr
			}
			total++
		}
		if len(page) < resyncPageSize {
			return total, nil
		}
	}
}

// resyncUsers 逐页重建用户侧缓存，页内按用户并发
func (s *resyncServiceImpl) resyncUsers(ctx context.Context) (int, error) {
	total := 0
	for offset := 0; ; offset += resyncPageSize {
		page, err := s.userRepo.ListUsers(ctx, offset, resyncPageSize)
		if err != nil {
			return total, fmt.Errorf("list users at %d: %w", offset, err)
		}
		if len(page) == 0 {
			return total, nil
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(resyncConcurrency)
		for _, user := range page {
			user := user
			g.Go(func() error {
				return s.resyncUser(gCtx, user)
			})
		}
		if err = g.Wait(); err != nil {
			return total, err
		}
		total += len(page)
		if len(page) < resyncPageSize {
			return total, nil
		}
	}
}

func (s *resyncServiceImpl) resyncUser(ctx context.Context, user *model.User) error {
	if err := s.profiles.Create(ctx, userToCachedProfile(user)); err != nil {
		return err
	}

	followerEdges, err := s.followRepo.GetUserFollowers(ctx, user.ID)
	if err != nil {
		return err
	}
	followingEdges, err := s.followRepo.GetUserFollowing(ctx, user.ID)
	if err != nil {
		return err
	}
	followerIDs := make([]string, 0, len(followerEdges))
	for _, edge := range followerEdges {
		followerIDs = append(followerIDs, edge.FollowerID)
	}
	followingIDs := make([]string, 0, len(followingEdges))
	for _, edge := range followingEdges {
		followingIDs = append(followingIDs, edge.FollowingID)
	}

	ownPosts, err := s.postRepo.ListPostsByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}
	authorIDs := make([]string, 0, len(ownPosts))
	for _, post := range ownPosts {
		authorIDs = append(authorIDs, post.ID)
	}

	homeIDs, err := s.buildHomeTimeline(ctx, followingIDs)
	if err != nil {
		return err
	}

	b := s.store.Batch()
	s.follows.Rebuild(b, user.ID, followerIDs, followingIDs)
	s.timelines.ReplaceAuthor(b, user.ID, authorIDs)
	s.timelines.ReplaceHome(b, user.ID, homeIDs)
	if err = b.Exec(ctx); err != nil {
		return fmt.Errorf("rebuild user %s: %w", user.ID, err)
	}
	return nil
}

// buildHomeTimeline 合并所有被关注者的帖子，按创建时间倒序取前 homeCap 条
func (s *resyncServiceImpl) buildHomeTimeline(ctx context.Context, followingIDs []string) ([]string, error) {
	var merged []*model.Post
	for _, authorID := range followingIDs {
		posts, err := s.postRepo.ListPostsByAuthor(ctx, authorID)
		if err != nil {
			return nil, err
		}
		merged = append(merged, posts...)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	homeCap := int(s.timelines.Caps().Home)
	if len(merged) > homeCap {
		merged = merged[:homeCap]
	}
	ids := make([]string, 0, len(merged))
	for _, post := range merged {
		ids = append(ids, post.ID)
	}
	return ids, nil
}
