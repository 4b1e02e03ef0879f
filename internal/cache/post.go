package cache

import (
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// 互动计数字段名，与 post:{id}:stats 哈希字段一一对应
const (
	CounterComments = "comments"
	CounterReposts  = "reposts"
	CounterQuotes   = "quotes"
	CounterLikes    = "likes"
	CounterDislikes = "dislikes"
	CounterViews    = "views"
)

var counterFields = map[string]struct{}{
	CounterComments: {},
	CounterReposts:  {},
	CounterQuotes:   {},
	CounterLikes:    {},
	CounterDislikes: {},
	CounterViews:    {},
}

// CachedPost 帖子元数据快照。计数单独存 stats 哈希，
// 互动更新不重写元数据。
type CachedPost struct {
	ID            string
	AuthorID      string
	Body          string
	Images        []string
	Video         string
	ScheduledTime *time.Time
	CreatedAt     time.Time
}

// PostView 读路径返回的帖子视图：元数据 + 合并后的计数
type PostView struct {
	CachedPost
	Stats Stats
}

// PostCache 帖子缓存：发布扇出、互动重排、删除回收与批量读取
type PostCache struct {
	store     Store
	timelines *Timelines
	follows   *FollowGraph

	now func() time.Time
}

func NewPostCache(store Store, timelines *Timelines, follows *FollowGraph) *PostCache {
	return &PostCache{
		store:     store,
		timelines: timelines,
		follows:   follows,
		now:       time.Now,
	}
}

// Publish 写入元数据与零值计数、占位全局榜、扇出到全部关注者首页流并头插作者流。
// 对关注者的扇出合并为一次往返提交。返回本次扇出的关注者集合，供上层派发通知。
func (p *PostCache) Publish(ctx context.Context, post *CachedPost) ([]string, error) {
	meta, err := metaToMap(post)
	if err != nil {
		return nil, fmt.Errorf("publish post %s: %w", post.ID, err)
	}

	if err = p.timelines.SeedGlobal(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("publish post %s: %w", post.ID, err)
	}

	followers, err := p.follows.Followers(ctx, post.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("publish post %s: %w", post.ID, err)
	}

	b := p.store.Batch()
	b.HSet(PostMetaKey(post.ID), meta)
	b.HSet(PostStatsKey(post.ID), statsToMap(Stats{}))
	for _, followerID := range followers {
		p.timelines.PushHome(b, followerID, post.ID)
	}
	p.timelines.PushAuthor(b, post.AuthorID, post.ID)
	if err = b.Exec(ctx); err != nil {
		return nil, fmt.Errorf("publish post %s: %w", post.ID, err)
	}

	return followers, nil
}

// Recache 无条件重写元数据哈希，不触发扇出。
// 编辑帖子与批量对账都走这条路径（编辑 = 元数据覆盖 + 重缓存，不引入新状态）。
func (p *PostCache) Recache(ctx context.Context, post *CachedPost) error {
	meta, err := metaToMap(post)
	if err != nil {
		return fmt.Errorf("recache post %s: %w", post.ID, err)
	}
	if err = p.store.HSet(ctx, PostMetaKey(post.ID), meta); err != nil {
		return fmt.Errorf("recache post %s: %w", post.ID, err)
	}
	return nil
}

// SeedStats 仅在计数哈希缺失时用库内计数补种。
// 缓存里已有计数说明缓存比库新，不能回退。
func (p *PostCache) SeedStats(ctx context.Context, postID string, stats Stats) error {
	existing, err := p.store.HGetAll(ctx, PostStatsKey(postID))
	if err != nil {
		return fmt.Errorf("seed stats %s: %w", postID, err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err = p.store.HSet(ctx, PostStatsKey(postID), statsToMap(stats)); err != nil {
		return fmt.Errorf("seed stats %s: %w", postID, err)
	}
	return nil
}

// RecordEngagement 原子自增指定计数，按最新计数与帖龄重算分数并重排全局榜，
// 同时把帖子标记进脏集，等待计数回刷任务落库
func (p *PostCache) RecordEngagement(ctx context.Context, postID, counter string, delta int64) error {
	if _, ok := counterFields[counter]; !ok {
		return fmt.Errorf("record engagement %s: %w", postID, ErrUnknownCounter)
	}

	newVal, err := p.store.HIncrBy(ctx, PostStatsKey(postID), counter, delta)
	if err != nil {
		return fmt.Errorf("record engagement %s: %w", postID, err)
	}
	// 计数不允许为负：对账补种后重放的删除事件会把计数拉到零以下，落底归零
	if newVal < 0 {
		if err = p.store.HSet(ctx, PostStatsKey(postID), map[string]string{counter: "0"}); err != nil {
			return fmt.Errorf("record engagement %s: %w", postID, err)
		}
	}

	b := p.store.Batch()
	b.SAdd(PostDirtyKey, postID)

	createdAtRaw, err := p.store.HGet(ctx, PostMetaKey(postID), "created_at")
	if err != nil {
		return fmt.Errorf("record engagement %s: %w", postID, err)
	}
	// 元数据已被并发删除：计数软失效，不再参与排名
	if createdAtRaw == "" {
		return b.Exec(ctx)
	}

	statsRaw, err := p.store.HGetAll(ctx, PostStatsKey(postID))
	if err != nil {
		return fmt.Errorf("record engagement %s: %w", postID, err)
	}

	createdAt := time.Unix(parseInt64(createdAtRaw), 0)
	score := Score(statsFromMap(statsRaw), createdAt, p.now())

	p.timelines.UpsertGlobal(b, postID, score)
	if err = b.Exec(ctx); err != nil {
		return fmt.Errorf("record engagement %s: %w", postID, err)
	}
	return nil
}

// Delete 将帖子从全局榜、所有关注者首页流与作者流移除，并删除元数据与计数。
// 任一位置本就缺失时不报错，可安全重试。
func (p *PostCache) Delete(ctx context.Context, postID, authorID string) error {
	followers, err := p.follows.Followers(ctx, authorID)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}

	b := p.store.Batch()
	p.timelines.RemoveGlobal(b, postID)
	for _, followerID := range followers {
		p.timelines.RemoveHome(b, followerID, postID)
	}
	p.timelines.RemoveAuthor(b, authorID, postID)
	b.SRem(PostDirtyKey, postID)
	b.Del(PostMetaKey(postID), PostStatsKey(postID))
	if err = b.Exec(ctx); err != nil {
		return fmt.Errorf("delete post %s: %w", postID, err)
	}
	return nil
}

func (p *PostCache) ReadGlobal(ctx context.Context, start, end int64) ([]*PostView, error) {
	ids, err := p.timelines.ReadGlobal(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return p.getPosts(ctx, ids)
}

func (p *PostCache) ReadHome(ctx context.Context, userID string, start, end int64) ([]*PostView, error) {
	ids, err := p.timelines.ReadHome(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return p.getPosts(ctx, ids)
}

func (p *PostCache) ReadAuthor(ctx context.Context, userID string, start, end int64) ([]*PostView, error) {
	ids, err := p.timelines.ReadAuthor(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	return p.getPosts(ctx, ids)
}

// Get 读取单帖视图，元数据缺失时返回 nil
func (p *PostCache) Get(ctx context.Context, postID string) (*PostView, error) {
	views, err := p.getPosts(ctx, []string{postID})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return views[0], nil
}

// GetStats 读取单帖计数（计数回刷任务使用）
func (p *PostCache) GetStats(ctx context.Context, postID string) (Stats, bool, error) {
	raw, err := p.store.HGetAll(ctx, PostStatsKey(postID))
	if err != nil {
		return Stats{}, false, fmt.Errorf("get stats %s: %w", postID, err)
	}
	if len(raw) == 0 {
		return Stats{}, false, nil
	}
	return statsFromMap(raw), true, nil
}

// getPosts 批量拉取元数据与计数各一次往返，避免 N+1。
// 元数据缺失的 id（与删除竞态）直接过滤，不视为错误。
func (p *PostCache) getPosts(ctx context.Context, ids []string) ([]*PostView, error) {
	if len(ids) == 0 {
		return []*PostView{}, nil
	}

	metaKeys := make([]string, 0, len(ids))
	statsKeys := make([]string, 0, len(ids))
	for _, id := range ids {
		metaKeys = append(metaKeys, PostMetaKey(id))
		statsKeys = append(statsKeys, PostStatsKey(id))
	}

	metas, err := p.store.HGetAllBatch(ctx, metaKeys)
	if err != nil {
		return nil, fmt.Errorf("batch get posts: %w", err)
	}
	allStats, err := p.store.HGetAllBatch(ctx, statsKeys)
	if err != nil {
		return nil, fmt.Errorf("batch get post stats: %w", err)
	}

	views := make([]*PostView, 0, len(ids))
	for i, meta := range metas {
		if len(meta) == 0 {
			continue
		}
		post, err := metaFromMap(meta)
		if err != nil {
			log.WarnContext(ctx, "drop unreadable post meta", "post_id", ids[i], "err", err)
			continue
		}
		views = append(views, &PostView{
			CachedPost: *post,
			Stats:      statsFromMap(allStats[i]),
		})
	}
	return views, nil
}

// metaToMap 序列化边界：领域层之外不出现未定型 map
func metaToMap(post *CachedPost) (map[string]string, error) {
	images, err := json.Marshal(post.Images)
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	meta := map[string]string{
		"id":         post.ID,
		"author_id":  post.AuthorID,
		"body":       post.Body,
		"images":     string(images),
		"video":      post.Video,
		"created_at": formatInt64(post.CreatedAt.Unix()),
	}
	if post.ScheduledTime != nil {
		meta["scheduled_time"] = formatInt64(post.ScheduledTime.Unix())
	}
	return meta, nil
}

func metaFromMap(meta map[string]string) (*CachedPost, error) {
	post := &CachedPost{
		ID:        meta["id"],
		AuthorID:  meta["author_id"],
		Body:      meta["body"],
		Video:     meta["video"],
		CreatedAt: time.Unix(parseInt64(meta["created_at"]), 0),
	}
	if raw := meta["images"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &post.Images); err != nil {
			return nil, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if raw := meta["scheduled_time"]; raw != "" {
		ts := time.Unix(parseInt64(raw), 0)
		post.ScheduledTime = &ts
	}
	return post, nil
}

func statsToMap(stats Stats) map[string]string {
	return map[string]string{
		CounterComments: formatInt64(stats.Comments),
		CounterReposts:  formatInt64(stats.Reposts),
		CounterQuotes:   formatInt64(stats.Quotes),
		CounterLikes:    formatInt64(stats.Likes),
		CounterDislikes: formatInt64(stats.Dislikes),
		CounterViews:    formatInt64(stats.Views),
	}
}

func statsFromMap(raw map[string]string) Stats {
	return Stats{
		Comments: parseInt64(raw[CounterComments]),
		Reposts:  parseInt64(raw[CounterReposts]),
		Quotes:   parseInt64(raw[CounterQuotes]),
		Likes:    parseInt64(raw[CounterLikes]),
		Dislikes: parseInt64(raw[CounterDislikes]),
		Views:    parseInt64(raw[CounterViews]),
	}
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func formatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}
