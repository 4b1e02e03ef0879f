package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore 基于 go-redis 的 Store 实现
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := s.rdb.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("hget %s %s: %w", key, field, err)
	}
	return val, nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	val, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) HGetAllBatch(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, 0, len(keys))
	pipe := s.rdb.Pipeline()
	for _, key := range keys {
		cmds = append(cmds, pipe.HGetAll(ctx, key))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("hgetall batch: %w", err)
	}

	out := make([]map[string]string, 0, len(keys))
	for _, cmd := range cmds {
		out = append(out, cmd.Val())
	}
	return out, nil
}

func (s *RedisStore) HDel(ctx context.Context, key string, fields ...string) error {
	return s.rdb.HDel(ctx, key, fields...).Err()
}

func (s *RedisStore) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	val, err := s.rdb.HIncrBy(ctx, key, field, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("hincrby %s %s: %w", key, field, err)
	}
	return val, nil
}

func (s *RedisStore) HExists(ctx context.Context, key, field string) (bool, error) {
	return s.rdb.HExists(ctx, key, field).Result()
}

func (s *RedisStore) HKeys(ctx context.Context, key string) ([]string, error) {
	return s.rdb.HKeys(ctx, key).Result()
}

func (s *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	val, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	val, err := s.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) SIsMember(ctx context.Context, key, member string) (bool, error) {
	return s.rdb.SIsMember(ctx, key, member).Result()
}

func (s *RedisStore) ZCard(ctx context.Context, key string) (int64, error) {
	return s.rdb.ZCard(ctx, key).Result()
}

func (s *RedisStore) ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	val, err := s.rdb.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", key, err)
	}
	return val, nil
}

func (s *RedisStore) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	val, err := s.rdb.ZScore(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("zscore %s: %w", key, err)
	}
	return val, true, nil
}

func (s *RedisStore) Rename(ctx context.Context, oldKey, newKey string) error {
	err := s.rdb.Rename(ctx, oldKey, newKey).Err()
	if err == nil {
		return nil
	}
	// Redis 对缺失源键回复 "ERR no such key"，统一映射为哨兵错误
	if isNoSuchKey(err) {
		return ErrNoSuchKey
	}
	return fmt.Errorf("rename %s: %w", oldKey, err)
}

func isNoSuchKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such key")
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) Batch() Batch {
	return &redisBatch{pipe: s.rdb.Pipeline()}
}

// redisBatch 将写操作入队到 go-redis pipeline，一次往返提交
type redisBatch struct {
	pipe redis.Pipeliner
}

func (b *redisBatch) HSet(key string, fields map[string]string) {
	b.pipe.HSet(context.Background(), key, fields)
}

func (b *redisBatch) HDel(key string, fields ...string) {
	b.pipe.HDel(context.Background(), key, fields...)
}

func (b *redisBatch) LPush(key string, values ...string) {
	b.pipe.LPush(context.Background(), key, values)
}

func (b *redisBatch) RPush(key string, values ...string) {
	b.pipe.RPush(context.Background(), key, values)
}

func (b *redisBatch) LTrim(key string, start, stop int64) {
	b.pipe.LTrim(context.Background(), key, start, stop)
}

func (b *redisBatch) LRem(key string, count int64, value string) {
	b.pipe.LRem(context.Background(), key, count, value)
}

func (b *redisBatch) SAdd(key string, members ...string) {
	members2 := make([]interface{}, len(members))
	for i, m := range members {
		members2[i] = m
	}
	b.pipe.SAdd(context.Background(), key, members2...)
}

func (b *redisBatch) SRem(key string, members ...string) {
	members2 := make([]interface{}, len(members))
	for i, m := range members {
		members2[i] = m
	}
	b.pipe.SRem(context.Background(), key, members2...)
}

func (b *redisBatch) ZAdd(key string, score float64, member string) {
	b.pipe.ZAdd(context.Background(), key, redis.Z{Score: score, Member: member})
}

func (b *redisBatch) ZRem(key string, members ...string) {
	members2 := make([]interface{}, len(members))
	for i, m := range members {
		members2[i] = m
	}
	b.pipe.ZRem(context.Background(), key, members2...)
}

func (b *redisBatch) ZRemRangeByRank(key string, start, stop int64) {
	b.pipe.ZRemRangeByRank(context.Background(), key, start, stop)
}

func (b *redisBatch) Del(keys ...string) {
	b.pipe.Del(context.Background(), keys...)
}

func (b *redisBatch) Exec(ctx context.Context) error {
	if _, err := b.pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("batch exec: %w", err)
	}
	return nil
}
