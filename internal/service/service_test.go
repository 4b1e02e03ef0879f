package service

import (
	"Ripple/internal/cache"
	"Ripple/internal/model"
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

// ---- 内存版仓储，只实现测试需要的真实语义 ----

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*model.Post)}
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetPost(_ context.Context, id string) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

// UpdatePost 与真实实现一致：只落 body/images/video 三列，nil 也写入
func (r *fakePostRepo) UpdatePost(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.posts[post.ID]
	if !ok {
		return nil
	}
	existing.Body = post.Body
	existing.Images = post.Images
	existing.Video = post.Video
	return nil
}

func (r *fakePostRepo) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) ListPosts(_ context.Context, offset, limit int) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Post
	for _, post := range r.posts {
		if post.IsPublished {
			cp := *post
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

func (r *fakePostRepo) ListPostsByAuthor(_ context.Context, authorID string) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Post
	for _, post := range r.posts {
		if post.AuthorID == authorID && post.IsPublished {
			cp := *post
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakePostRepo) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Post
	for _, post := range r.posts {
		if !post.IsPublished && post.ScheduledTime != nil && !post.ScheduledTime.After(now) {
			cp := *post
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(*out[j].ScheduledTime) })
	return page(out, 0, limit), nil
}

func (r *fakePostRepo) MarkPublished(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		post.IsPublished = true
	}
	return nil
}

func (r *fakePostRepo) DeletePostsByAuthor(_ context.Context, authorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, post := range r.posts {
		if post.AuthorID == authorID {
			delete(r.posts, id)
		}
	}
	return nil
}

func (r *fakePostRepo) UpdatePostCounts(_ context.Context, id string, comments, reposts, quotes, likes, dislikes, views int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil
	}
	post.CommentsCount = comments
	post.RepostsCount = reposts
	post.QuotesCount = quotes
	post.LikesCount = likes
	post.DislikesCount = dislikes
	post.ViewsCount = views
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, offset, limit int) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.User
	for _, user := range r.users {
		cp := *user
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, offset, limit), nil
}

type followEdge struct {
	followerID  string
	followingID string
}

type fakeFollowRepo struct {
	mu    sync.Mutex
	edges map[followEdge]time.Time
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[followEdge]time.Time)}
}

func (r *fakeFollowRepo) CreateUserFollow(_ context.Context, uf *model.UserFollow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edges[followEdge{uf.FollowerID, uf.FollowingID}] = uf.CreatedAt
	return nil
}

func (r *fakeFollowRepo) DeleteUserFollow(_ context.Context, uf *model.UserFollow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, followEdge{uf.FollowerID, uf.FollowingID})
	return nil
}

func (r *fakeFollowRepo) GetUserFollow(_ context.Context, followerID, followingID string) (*model.UserFollow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	createdAt, ok := r.edges[followEdge{followerID, followingID}]
	if !ok {
		return nil, nil
	}
	return &model.UserFollow{FollowerID: followerID, FollowingID: followingID, CreatedAt: createdAt}, nil
}

func (r *fakeFollowRepo) GetUserFollowing(_ context.Context, followerID string) ([]*model.UserFollow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserFollow
	for edge, createdAt := range r.edges {
		if edge.followerID == followerID {
			out = append(out, &model.UserFollow{FollowerID: edge.followerID, FollowingID: edge.followingID, CreatedAt: createdAt})
		}
	}
	return out, nil
}

func (r *fakeFollowRepo) GetUserFollowers(_ context.Context, followingID string) ([]*model.UserFollow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.UserFollow
	for edge, createdAt := range r.edges {
		if edge.followingID == followingID {
			out = append(out, &model.UserFollow{FollowerID: edge.followerID, FollowingID: edge.followingID, CreatedAt: createdAt})
		}
	}
	return out, nil
}

func (r *fakeFollowRepo) DeleteAllForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for edge := range r.edges {
		if edge.followerID == userID || edge.followingID == userID {
			delete(r.edges, edge)
		}
	}
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// fakeNotifier 记录所有通知调用
type fakeNotifier struct {
	mu    sync.Mutex
	calls []map[string]interface{}
	sent  [][]string
}

func (n *fakeNotifier) Notify(recipientIDs []string, payload map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, recipientIDs)
	n.calls = append(n.calls, payload)
}

// testEnv 一套完整的内存环境：缓存组件 + 服务
type testEnv struct {
	store    *cache.MemoryStore
	posts    *cache.PostCache
	follows  *cache.FollowGraph
	profiles *cache.Profiles
	postRepo *fakePostRepo
	userRepo *fakeUserRepo
	edgeRepo *fakeFollowRepo
	notifier *fakeNotifier

	feedSvc    FeedService
	profileSvc ProfileService
	resyncSvc  ResyncService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := cache.NewMemoryStore()
	timelines := cache.NewTimelines(store, cache.TimelineCaps{})
	follows := cache.NewFollowGraph(store)
	posts := cache.NewPostCache(store, timelines, follows)
	profiles := cache.NewProfiles(store, follows, posts)

	postRepo := newFakePostRepo()
	userRepo := newFakeUserRepo()
	edgeRepo := newFakeFollowRepo()
	notifier := &fakeNotifier{}

	return &testEnv{
		store:      store,
		posts:      posts,
		follows:    follows,
		profiles:   profiles,
		postRepo:   postRepo,
		userRepo:   userRepo,
		edgeRepo:   edgeRepo,
		notifier:   notifier,
		feedSvc:    NewFeedService(postRepo, edgeRepo, posts, follows, profiles, notifier),
		profileSvc: NewProfileService(userRepo, postRepo, edgeRepo, profiles),
		resyncSvc: NewResyncService(
			userRepo, postRepo, edgeRepo, store, posts, timelines, follows, profiles),
	}
}
