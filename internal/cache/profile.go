package cache

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

// CachedProfile 用户资料快照，镜像关系库的必要字段。
// username / email 的唯一性由关系库保证，这里只维护快查索引。
type CachedProfile struct {
	ID           string
	FirstName    string
	LastName     string
	Username     string
	Email        string
	PasswordHash string
	Avatar       string
	Banner       string
	Bio          string
	CreatedAt    time.Time
}

// Profiles 用户资料缓存与 username/email 全局索引
type Profiles struct {
	store   Store
	follows *FollowGraph
	posts   *PostCache
}

func NewProfiles(store Store, follows *FollowGraph, posts *PostCache) *Profiles {
	return &Profiles{store: store, follows: follows, posts: posts}
}

// Create 快照与两个索引作为一个批次写入
func (p *Profiles) Create(ctx context.Context, profile *CachedProfile) error {
	b := p.store.Batch()
	b.HSet(ProfileKey(profile.ID), profileToMap(profile))
	b.HSet(UsernamesKey, map[string]string{profile.Username: profile.ID})
	b.HSet(EmailsKey, map[string]string{profile.Email: "1"})
	if err := b.Exec(ctx); err != nil {
		return fmt.Errorf("create profile %s: %w", profile.ID, err)
	}
	return nil
}

// Get 读取资料快照，缺失返回 nil
func (p *Profiles) Get(ctx context.Context, userID string) (*CachedProfile, error) {
	raw, err := p.store.HGetAll(ctx, ProfileKey(userID))
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return profileFromMap(raw), nil
}

func (p *Profiles) GetByUsername(ctx context.Context, username string) (*CachedProfile, error) {
	userID, err := p.store.HGet(ctx, UsernamesKey, username)
	if err != nil {
		return nil, fmt.Errorf("get profile by username %s: %w", username, err)
	}
	if userID == "" {
		return nil, nil
	}
	return p.Get(ctx, userID)
}

// AvatarURL 单字段读取，发帖通知用它判断作者是否有头像
func (p *Profiles) AvatarURL(ctx context.Context, userID string) (string, error) {
	return p.store.HGet(ctx, ProfileKey(userID), "avatar")
}

// UsernameTaken / EmailTaken 索引镜像查询，一次往返
func (p *Profiles) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return p.store.HExists(ctx, UsernamesKey, username)
}

func (p *Profiles) EmailTaken(ctx context.Context, email string) (bool, error) {
	return p.store.HExists(ctx, EmailsKey, email)
}

// SearchUsernames 在索引上做大小写不敏感的子串过滤
func (p *Profiles) SearchUsernames(ctx context.Context, query string) ([]string, error) {
	usernames, err := p.store.HKeys(ctx, UsernamesKey)
	if err != nil {
		return nil, fmt.Errorf("search usernames: %w", err)
	}
	if query == "" {
		return usernames, nil
	}
	query = strings.ToLower(query)
	out := make([]string, 0, len(usernames))
	for _, name := range usernames {
		if strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	return out, nil
}

// Delete 级联删除用户的全部缓存痕迹：先读后删 ——
// 作者流与关注集合必须在删键前取到，否则级联丢失目标。
// 多键操作非事务，中途失败只记录剩余目标，由对账任务兜底。
func (p *Profiles) Delete(ctx context.Context, userID, username, email string) error {
	postIDs, err := p.store.LRange(ctx, AuthorTimelineKey(userID), 0, -1)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	followers, err := p.follows.Followers(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	following, err := p.follows.Following(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}

	// 级联删帖在删键之前执行，保证关注者首页流被清理
	for i, postID := range postIDs {
		if err = p.posts.Delete(ctx, postID, userID); err != nil {
			log.ErrorContext(ctx, "cascade post delete failed",
				"user_id", userID,
				"op", "profile_delete",
				"post_id", postID,
				"remaining", len(postIDs)-i,
				"err", err)
			return fmt.Errorf("delete profile %s: %w", userID, err)
		}
	}

	b := p.store.Batch()
	// 双向退出关注关系
	for _, followerID := range followers {
		b.SRem(FollowingsKey(followerID), userID)
	}
	for _, followedID := range following {
		b.SRem(FollowersKey(followedID), userID)
	}
	b.Del(
		ProfileKey(userID),
		AuthorTimelineKey(userID),
		HomeTimelineKey(userID),
		FollowersKey(userID),
		FollowingsKey(userID),
	)
	b.HDel(UsernamesKey, username)
	b.HDel(EmailsKey, email)
	if err = b.Exec(ctx); err != nil {
		log.ErrorContext(ctx, "profile key sweep failed",
			"user_id", userID,
			"op", "profile_delete",
			"followers", len(followers),
			"following", len(following),
			"err", err)
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	return nil
}

func profileToMap(profile *CachedProfile) map[string]string {
	m := map[string]string{
		"id":         profile.ID,
		"username":   profile.Username,
		"email":      profile.Email,
		"created_at": formatInt64(profile.CreatedAt.Unix()),
	}
	// 只存非空字段，快照保持紧凑
	optional := map[string]string{
		"first_name": profile.FirstName,
		"last_name":  profile.LastName,
		"password":   profile.PasswordHash,
		"avatar":     profile.Avatar,
		"banner":     profile.Banner,
		"bio":        profile.Bio,
	}
	for field, value := range optional {
		if value != "" {
			m[field] = value
		}
	}
	return m
}

func profileFromMap(raw map[string]string) *CachedProfile {
	return &CachedProfile{
		ID:           raw["id"],
		FirstName:    raw["first_name"],
		LastName:     raw["last_name"],
		Username:     raw["username"],
		Email:        raw["email"],
		PasswordHash: raw["password"],
		Avatar:       raw["avatar"],
		Banner:       raw["banner"],
		Bio:          raw["bio"],
		CreatedAt:    time.Unix(parseInt64(raw["created_at"]), 0),
	}
}
