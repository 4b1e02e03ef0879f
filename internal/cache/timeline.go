package cache

import (
	"context"
	"fmt"
)

// 时间线默认容量
const (
	DefaultGlobalCap = 180
	DefaultHomeCap   = 60
	DefaultAuthorCap = 60
)

// TimelineCaps 三类时间线的容量上限
type TimelineCaps struct {
	Global int64
	Home   int64
	Author int64
}

func (c TimelineCaps) withDefaults() TimelineCaps {
	if c.Global <= 0 {
		c.Global = DefaultGlobalCap
	}
	if c.Home <= 0 {
		c.Home = DefaultHomeCap
	}
	if c.Author <= 0 {
		c.Author = DefaultAuthorCap
	}
	return c
}

// Timelines 有序时间线容器：全局榜（zset，按分数）、首页流与作者流（list，按时间倒序）。
// 写操作以 Batch 入队形式提供，由调用方合并为一次往返；读操作直接执行。
type Timelines struct {
	store Store
	caps  TimelineCaps
}

func NewTimelines(store Store, caps TimelineCaps) *Timelines {
	return &Timelines{store: store, caps: caps.withDefaults()}
}

func (t *Timelines) Caps() TimelineCaps {
	return t.caps
}

// PushAuthor 头插作者流并截断到容量。不去重，发布去重由调用方负责。
func (t *Timelines) PushAuthor(b Batch, userID, postID string) {
	key := AuthorTimelineKey(userID)
	b.LPush(key, postID)
	b.LTrim(key, 0, t.caps.Author-1)
}

// PushHome 头插单个关注者的首页流并截断到容量
func (t *Timelines) PushHome(b Batch, userID, postID string) {
	key := HomeTimelineKey(userID)
	b.LPush(key, postID)
	b.LTrim(key, 0, t.caps.Home-1)
}

// SeedGlobal 新帖以 0 分占位进入全局榜，仅在榜未满时生效。
// 公式计分只在后续互动更新时应用，保证零互动新帖也有初始曝光。
func (t *Timelines) SeedGlobal(ctx context.Context, postID string) error {
	card, err := t.store.ZCard(ctx, GlobalTimelineKey)
	if err != nil {
		return fmt.Errorf("seed global timeline: %w", err)
	}
	if card >= t.caps.Global {
		return nil
	}
	b := t.store.Batch()
	b.ZAdd(GlobalTimelineKey, 0, postID)
	return b.Exec(ctx)
}

// UpsertGlobal 以新分数重排全局榜，随后裁掉低分段只保留 top cap
func (t *Timelines) UpsertGlobal(b Batch, postID string, score float64) {
	b.ZAdd(GlobalTimelineKey, score, postID)
	b.ZRemRangeByRank(GlobalTimelineKey, 0, -(t.caps.Global + 1))
}

func (t *Timelines) RemoveGlobal(b Batch, postID string) {
	b.ZRem(GlobalTimelineKey, postID)
}

// RemoveHome 清掉某首页流中该帖的所有出现（防御意外重复）
func (t *Timelines) RemoveHome(b Batch, userID, postID string) {
	b.LRem(HomeTimelineKey(userID), 0, postID)
}

func (t *Timelines) RemoveAuthor(b Batch, userID, postID string) {
	b.LRem(AuthorTimelineKey(userID), 0, postID)
}

// ReplaceAuthor 整体重建作者流（对账路径）：删旧键后按新序重写，避免 LPUSH 叠加产生重复
func (t *Timelines) ReplaceAuthor(b Batch, userID string, postIDs []string) {
	key := AuthorTimelineKey(userID)
	b.Del(key)
	if len(postIDs) == 0 {
		return
	}
	b.RPush(key, postIDs...)
	b.LTrim(key, 0, t.caps.Author-1)
}

// ReplaceHome 整体重建首页流（对账路径）
func (t *Timelines) ReplaceHome(b Batch, userID string, postIDs []string) {
	key := HomeTimelineKey(userID)
	b.Del(key)
	if len(postIDs) == 0 {
		return
	}
	b.RPush(key, postIDs...)
	b.LTrim(key, 0, t.caps.Home-1)
}

// ReadGlobal 按分数从高到低读取全局榜 [start, end] 闭区间
func (t *Timelines) ReadGlobal(ctx context.Context, start, end int64) ([]string, error) {
	ids, err := t.store.ZRevRange(ctx, GlobalTimelineKey, start, end)
	if err != nil {
		return nil, fmt.Errorf("read global timeline: %w", err)
	}
	return ids, nil
}

// ReadHome 读取首页流；为空时回退到同一窗口的全局榜，
// 保证新用户冷启动也有内容可看
func (t *Timelines) ReadHome(ctx context.Context, userID string, start, end int64) ([]string, error) {
	ids, err := t.store.LRange(ctx, HomeTimelineKey(userID), start, end)
	if err != nil {
		return nil, fmt.Errorf("read home timeline %s: %w", userID, err)
	}
	if len(ids) == 0 {
		return t.ReadGlobal(ctx, start, end)
	}
	return ids, nil
}

// ReadAuthor 读取作者流 [start, end]，越界返回空而非错误
func (t *Timelines) ReadAuthor(ctx context.Context, userID string, start, end int64) ([]string, error) {
	ids, err := t.store.LRange(ctx, AuthorTimelineKey(userID), start, end)
	if err != nil {
		return nil, fmt.Errorf("read author timeline %s: %w", userID, err)
	}
	return ids, nil
}
