package service

import (
	"Ripple/internal/api/dto"
	"Ripple/internal/cache"
	"Ripple/internal/model"
	"Ripple/internal/pkg/minio"
	"Ripple/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Notifier 新帖通知的投递汇点。实现方（ws hub）自带有界队列，
// 调用立即返回，投递失败静默丢弃。
type Notifier interface {
	Notify(recipientIDs []string, payload map[string]interface{})
}

// FeedService 信息流编排门面：发布、删除、互动、三类时间线读取与关注关系。
// 对上只暴露普通标识符与 DTO，不泄漏存储类型。
type FeedService interface {
	CreatePost(ctx context.Context, authorID string, postDTO *dto.PostCreateDTO) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, authorID, postID string, postDTO *dto.PostCreateDTO) error
	DeletePost(ctx context.Context, authorID, postID string) error
	PublishScheduled(ctx context.Context, postID string) error
	RecordEngagement(ctx context.Context, postID, counter string, delta int64) error
	GetPost(ctx context.Context, postID string) (*dto.PostDTO, error)
	GetGlobalTimeline(ctx context.Context, start, end int64) ([]*dto.PostDTO, error)
	GetHomeTimeline(ctx context.Context, userID string, start, end int64) ([]*dto.PostDTO, error)
	GetAuthorTimeline(ctx context.Context, userID string, start, end int64) ([]*dto.PostDTO, error)
	Follow(ctx context.Context, userID, followerID string) error
	Unfollow(ctx context.Context, userID, followerID string) error
	GetFollowers(ctx context.Context, userID string) ([]string, error)
	GetFollowing(ctx context.Context, userID string) ([]string, error)
	IsFollowing(ctx context.Context, followerID, userID string) (bool, error)
}

type feedServiceImpl struct {
	postRepo   repository.PostRepo
	followRepo repository.UserFollowRepo
	posts      *cache.PostCache
	follows    *cache.FollowGraph
	profiles   *cache.Profiles
	notifier   Notifier
	validate   *validator.Validate
}

func NewFeedService(
	postRepo repository.PostRepo,
	followRepo repository.UserFollowRepo,
	posts *cache.PostCache,
	follows *cache.FollowGraph,
	profiles *cache.Profiles,
	notifier Notifier,
) FeedService {
	return &feedServiceImpl{
		postRepo:   postRepo,
		followRepo: followRepo,
		posts:      posts,
		follows:    follows,
		profiles:   profiles,
		notifier:   notifier,
		validate:   validator.New(),
	}
}

// CreatePost 先落关系库，再做缓存扇出。
// 带未来 scheduled_time 的帖子只落库，由定时任务到点发布。
func (s *feedServiceImpl) CreatePost(ctx context.Context, authorID string, postDTO *dto.PostCreateDTO) (*dto.PostDTO, error) {
	if err := s.validate.Struct(postDTO); err != nil {
		return nil, ErrParamInvalid
	}

	post := &model.Post{
		ID:            uuid.NewString(),
		AuthorID:      authorID,
		Body:          postDTO.Body,
		ScheduledTime: postDTO.ScheduledTime,
		IsPublished:   true,
		CreatedAt:     time.Now(),
	}
	if len(postDTO.Images) > 0 {
		raw, err := json.Marshal(postDTO.Images)
		if err != nil {
			return nil, err
		}
		images := string(raw)
		post.Images = &images
	}
	if postDTO.Video != "" {
		post.Video = &postDTO.Video
	}
	if postDTO.ScheduledTime != nil && postDTO.ScheduledTime.After(time.Now()) {
		post.IsPublished = false
	}

	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	if post.IsPublished {
		if err := s.publishToCache(ctx, post); err != nil {
			return nil, err
		}
	}

	return modelToPostDTO(post), nil
}

// publishToCache 缓存扇出 + 头像门控的新帖通知
func (s *feedServiceImpl) publishToCache(ctx context.Context, post *model.Post) error {
	cached, err := toCachedPost(post)
	if err != nil {
		return err
	}

	followers, err := s.posts.Publish(ctx, cached)
	if err != nil {
		return err
	}
	if len(followers) == 0 {
		return nil
	}

	avatar, err := s.profiles.AvatarURL(ctx, post.AuthorID)
	if err != nil {
		log.WarnContext(ctx, "skip post notification, avatar lookup failed",
			"post_id", post.ID, "err", err)
		return nil
	}
	// 作者没有可解析头像时不发通知
	if avatar == "" {
		return nil
	}

	s.notifier.Notify(followers, map[string]interface{}{
		"event":     "new_post",
		"post_id":   post.ID,
		"author_id": post.AuthorID,
		"avatar":    avatar,
	})
	return nil
}

// UpdatePost 编辑即覆盖：更新关系库后无条件重写缓存元数据，不新增生命周期状态
func (s *feedServiceImpl) UpdatePost(ctx context.Context, authorID, postID string, postDTO *dto.PostCreateDTO) error {
	if err := s.validate.Struct(postDTO); err != nil {
		return ErrParamInvalid
	}

	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.AuthorID != authorID {
		return ErrPostNotFound
	}
	oldRefs := mediaRefs(post)

	post.Body = postDTO.Body
	post.Images = nil
	if len(postDTO.Images) > 0 {
		raw, mErr := json.Marshal(postDTO.Images)
		if mErr != nil {
			return mErr
		}
		images := string(raw)
		post.Images = &images
	}
	post.Video = nil
	if postDTO.Video != "" {
		post.Video = &postDTO.Video
	}

	if err = s.postRepo.UpdatePost(ctx, post); err != nil {
		return err
	}

	// 编辑中被移除的媒体引用回收对象存储
	if removed := removedRefs(oldRefs, mediaRefs(post)); len(removed) > 0 {
		go func(refs []string) {
			if mErr := minio.DeleteObjects(context.Background(), refs); mErr != nil {
				log.Error("delete replaced media objects failed", "post_id", postID, "err", mErr)
			}
		}(removed)
	}

	if !post.IsPublished {
		return nil
	}
	cached, err := toCachedPost(post)
	if err != nil {
		return err
	}
	return s.posts.Recache(ctx, cached)
}

// DeletePost 幂等删除：库、缓存、媒体对象依次回收。
// 媒体删除失败只记录日志，不阻塞缓存清理。
func (s *feedServiceImpl) DeletePost(ctx context.Context, authorID, postID string) error {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil || post.AuthorID != authorID {
		return ErrPostNotFound
	}

	if err = s.postRepo.DeletePost(ctx, postID); err != nil {
		return err
	}
	if err = s.posts.Delete(ctx, postID, authorID); err != nil {
		return err
	}

	if refs := mediaRefs(post); len(refs) > 0 {
		go func(refs []string) {
			if mErr := minio.DeleteObjects(context.Background(), refs); mErr != nil {
				log.Error("delete post media objects failed", "post_id", postID, "err", mErr)
			}
		}(refs)
	}
	return nil
}

// PublishScheduled 定时帖到点发布（由 cron 任务调用）
func (s *feedServiceImpl) PublishScheduled(ctx context.Context, postID string) error {
	post, err := s.postRepo.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.IsPublished || post.ScheduledTime == nil {
		return ErrPostNotScheduled
	}

	if err = s.postRepo.MarkPublished(ctx, postID); err != nil {
		return err
	}
	post.IsPublished = true
	return s.publishToCache(ctx, post)
}

func (s *feedServiceImpl) RecordEngagement(ctx context.Context, postID, counter string, delta int64) error {
	err := s.posts.RecordEngagement(ctx, postID, counter, delta)
	if errors.Is(err, cache.ErrUnknownCounter) {
		return ErrParamInvalid
	}
	return err
}

func (s *feedServiceImpl) GetPost(ctx context.Context, postID string) (*dto.PostDTO, error) {
	view, err := s.posts.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrPostNotFound
	}
	return viewToPostDTO(view), nil
}

func (s *feedServiceImpl) GetGlobalTimeline(ctx context.Context, start, end int64) ([]*dto.PostDTO, error) {
	views, err := s.posts.ReadGlobal(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return viewsToPostDTOs(views), nil
}

func (s *feedServiceImpl) GetHomeTimeline(ctx context.Context, userID string, start, end int64) ([]*dto.PostDTO, error) {
	views, err := s.posts.ReadHome(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return viewsToPostDTOs(views), nil
}

func (s *feedServiceImpl) GetAuthorTimeline(ctx context.Context, userID string, start, end int64) ([]*dto.PostDTO, error) {
	views, err := s.posts.ReadAuthor(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return viewsToPostDTOs(views), nil
}

// Follow 关注双写：关系库为准，缓存同步两个方向的集合
func (s *feedServiceImpl) Follow(ctx context.Context, userID, followerID string) error {
	if userID == followerID {
		return ErrUserFollowSelf
	}

	existing, err := s.followRepo.GetUserFollow(ctx, followerID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUserFollowExist
	}

	err = s.followRepo.CreateUserFollow(ctx, &model.UserFollow{
		FollowerID:  followerID,
		FollowingID: userID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return err
	}

	return s.follows.Follow(ctx, userID, followerID)
}

// Unfollow 幂等：边不存在时仍会清理缓存并成功返回
func (s *feedServiceImpl) Unfollow(ctx context.Context, userID, followerID string) error {
	err := s.followRepo.DeleteUserFollow(ctx, &model.UserFollow{
		FollowerID:  followerID,
		FollowingID: userID,
	})
	if err != nil {
		return err
	}
	return s.follows.Unfollow(ctx, userID, followerID)
}

func (s *feedServiceImpl) GetFollowers(ctx context.Context, userID string) ([]string, error) {
	return s.follows.Followers(ctx, userID)
}

func (s *feedServiceImpl) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	return s.follows.Following(ctx, userID)
}

func (s *feedServiceImpl) IsFollowing(ctx context.Context, followerID, userID string) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, userID)
}

// toCachedPost 关系库模型转缓存快照
func toCachedPost(post *model.Post) (*cache.CachedPost, error) {
	cached := &cache.CachedPost{
		ID:            post.ID,
		AuthorID:      post.AuthorID,
		Body:          post.Body,
		ScheduledTime: post.ScheduledTime,
		CreatedAt:     post.CreatedAt,
	}
	if post.Images != nil {
		if err := json.Unmarshal([]byte(*post.Images), &cached.Images); err != nil {
			return nil, err
		}
	}
	if post.Video != nil {
		cached.Video = *post.Video
	}
	return cached, nil
}

func modelToPostDTO(post *model.Post) *dto.PostDTO {
	out := &dto.PostDTO{}
	_ = copier.Copy(out, post)
	out.Images = nil
	if post.Images != nil {
		_ = json.Unmarshal([]byte(*post.Images), &out.Images)
	}
	out.Video = ""
	if post.Video != nil {
		out.Video = *post.Video
	}
	return out
}

func viewToPostDTO(view *cache.PostView) *dto.PostDTO {
	return &dto.PostDTO{
		ID:            view.ID,
		AuthorID:      view.AuthorID,
		Body:          view.Body,
		Images:        view.Images,
		Video:         view.Video,
		ScheduledTime: view.ScheduledTime,
		CreatedAt:     view.CreatedAt,
		CommentsCount: view.Stats.Comments,
		RepostsCount:  view.Stats.Reposts,
		QuotesCount:   view.Stats.Quotes,
		LikesCount:    view.Stats.Likes,
		DislikesCount: view.Stats.Dislikes,
		ViewsCount:    view.Stats.Views,
	}
}

func viewsToPostDTOs(views []*cache.PostView) []*dto.PostDTO {
	out := make([]*dto.PostDTO, 0, len(views))
	for _, view := range views {
		out = append(out, viewToPostDTO(view))
	}
	return out
}

func mediaRefs(post *model.Post) []string {
	var refs []string
	if post.Images != nil {
		var images []string
		if err := json.Unmarshal([]byte(*post.Images), &images); err == nil {
			refs = append(refs, images...)
		}
	}
	if post.Video != nil && *post.Video != "" {
		refs = append(refs, *post.Video)
	}
	return refs
}

// removedRefs 返回旧引用中不再被新引用使用的部分
func removedRefs(oldRefs, newRefs []string) []string {
	kept := make(map[string]struct{}, len(newRefs))
	for _, ref := range newRefs {
		kept[ref] = struct{}{}
	}
	var removed []string
	for _, ref := range oldRefs {
		if _, ok := kept[ref]; !ok {
			removed = append(removed, ref)
		}
	}
	return removed
}
