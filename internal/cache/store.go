package cache

import "context"

// Store 缓存存储契约。各缓存组件只依赖该接口，
// 生产环境由 RedisStore 实现，测试使用 MemoryStore。
type Store interface {
	// Hash
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllBatch 单次往返批量读取多个 Hash，顺序与 keys 一致，缺失的键返回空 map
	HGetAllBatch(ctx context.Context, keys []string) ([]map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	// HIncrBy 必须使用存储端原子自增，避免并发丢失更新
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	HExists(ctx context.Context, key, field string) (bool, error)
	HKeys(ctx context.Context, key string) ([]string, error)

	// List
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Set
	SMembers(ctx context.Context, key string) ([]string, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// Sorted Set
	ZCard(ctx context.Context, key string) (int64, error)
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	ZScore(ctx context.Context, key, member string) (float64, bool, error)

	Rename(ctx context.Context, oldKey, newKey string) error
	Del(ctx context.Context, keys ...string) error

	// Batch 创建一个写批次，Exec 时一次往返提交全部操作
	Batch() Batch
}

// Batch 批量写操作。入队阶段不产生网络 IO，Exec 一次提交。
// 批次整体不保证事务性，单条操作保证原子。
type Batch interface {
	HSet(key string, fields map[string]string)
	HDel(key string, fields ...string)
	LPush(key string, values ...string)
	RPush(key string, values ...string)
	LTrim(key string, start, stop int64)
	LRem(key string, count int64, value string)
	SAdd(key string, members ...string)
	SRem(key string, members ...string)
	ZAdd(key string, score float64, member string)
	ZRem(key string, members ...string)
	ZRemRangeByRank(key string, start, stop int64)
	Del(keys ...string)

	Exec(ctx context.Context) error
}
