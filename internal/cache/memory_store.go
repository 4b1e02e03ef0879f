package cache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore 进程内 Store 实现，行为对齐 Redis 语义，用作测试替身。
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]map[string]string
	lists  map[string][]string
	sets   map[string]map[string]struct{}
	zsets  map[string]map[string]float64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][]string),
		sets:   make(map[string]map[string]struct{}),
		zsets:  make(map[string]map[string]float64),
	}
}

func (s *MemoryStore) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hsetLocked(key, fields)
	return nil
}

func (s *MemoryStore) hsetLocked(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
}

func (s *MemoryStore) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashes[key][field], nil
}

func (s *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHash(s.hashes[key]), nil
}

func (s *MemoryStore) HGetAllBatch(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, copyHash(s.hashes[key]))
	}
	return out, nil
}

func (s *MemoryStore) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hdelLocked(key, fields...)
	return nil
}

func (s *MemoryStore) hdelLocked(key string, fields ...string) {
	h := s.hashes[key]
	for _, f := range fields {
		delete(h, f)
	}
	if len(h) == 0 {
		delete(s.hashes, key)
	}
}

func (s *MemoryStore) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	cur := parseInt64(h[field])
	cur += delta
	h[field] = formatInt64(cur)
	return cur, nil
}

func (s *MemoryStore) HExists(_ context.Context, key, field string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[key][field]
	return ok, nil
}

func (s *MemoryStore) HKeys(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.hashes[key]))
	for f := range s.hashes[key] {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.lists[key]
	lo, hi, ok := normalizeRange(start, stop, int64(len(list)))
	if !ok {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) SIsMember(_ context.Context, key, member string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sets[key][member]
	return ok, nil
}

func (s *MemoryStore) ZCard(_ context.Context, key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.zsets[key])), nil
}

func (s *MemoryStore) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ranked := s.zsetRankedLocked(key)
	// 反转为分数从高到低
	for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
	lo, hi, ok := normalizeRange(start, stop, int64(len(ranked)))
	if !ok {
		return nil, nil
	}
	return ranked[lo : hi+1], nil
}

func (s *MemoryStore) ZScore(_ context.Context, key, member string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.zsets[key][member]
	return score, ok, nil
}

func (s *MemoryStore) Rename(_ context.Context, oldKey, newKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := false
	if h, ok := s.hashes[oldKey]; ok {
		s.hashes[newKey] = h
		delete(s.hashes, oldKey)
		moved = true
	}
	if l, ok := s.lists[oldKey]; ok {
		s.lists[newKey] = l
		delete(s.lists, oldKey)
		moved = true
	}
	if st, ok := s.sets[oldKey]; ok {
		s.sets[newKey] = st
		delete(s.sets, oldKey)
		moved = true
	}
	if z, ok := s.zsets[oldKey]; ok {
		s.zsets[newKey] = z
		delete(s.zsets, oldKey)
		moved = true
	}
	if !moved {
		return ErrNoSuchKey
	}
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delLocked(keys...)
	return nil
}

func (s *MemoryStore) delLocked(keys ...string) {
	for _, key := range keys {
		delete(s.hashes, key)
		delete(s.lists, key)
		delete(s.sets, key)
		delete(s.zsets, key)
	}
}

func (s *MemoryStore) Batch() Batch {
	return &memoryBatch{store: s}
}

// zsetRankedLocked 返回按分数升序（同分按成员升序）排列的成员
func (s *MemoryStore) zsetRankedLocked(key string) []string {
	z := s.zsets[key]
	members := make([]string, 0, len(z))
	for m := range z {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z[members[i]], z[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})
	return members
}

// memoryBatch 缓冲写操作，Exec 时持锁一次应用
type memoryBatch struct {
	store *MemoryStore
	ops   []func(*MemoryStore)
}

func (b *memoryBatch) HSet(key string, fields map[string]string) {
	cp := copyHash(fields)
	b.ops = append(b.ops, func(s *MemoryStore) { s.hsetLocked(key, cp) })
}

func (b *memoryBatch) HDel(key string, fields ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) { s.hdelLocked(key, fields...) })
}

func (b *memoryBatch) LPush(key string, values ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		list := s.lists[key]
		// LPUSH 逐个头插
		for _, v := range values {
			list = append([]string{v}, list...)
		}
		s.lists[key] = list
	})
}

func (b *memoryBatch) RPush(key string, values ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		s.lists[key] = append(s.lists[key], values...)
	})
}

func (b *memoryBatch) LTrim(key string, start, stop int64) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		list := s.lists[key]
		lo, hi, ok := normalizeRange(start, stop, int64(len(list)))
		if !ok {
			delete(s.lists, key)
			return
		}
		s.lists[key] = list[lo : hi+1]
	})
}

func (b *memoryBatch) LRem(key string, _ int64, value string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		list := s.lists[key]
		out := list[:0]
		for _, v := range list {
			if v != value {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			delete(s.lists, key)
			return
		}
		s.lists[key] = out
	})
}

func (b *memoryBatch) SAdd(key string, members ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		set, ok := s.sets[key]
		if !ok {
			set = make(map[string]struct{})
			s.sets[key] = set
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
	})
}

func (b *memoryBatch) SRem(key string, members ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		set := s.sets[key]
		for _, m := range members {
			delete(set, m)
		}
		if len(set) == 0 {
			delete(s.sets, key)
		}
	})
}

func (b *memoryBatch) ZAdd(key string, score float64, member string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		z, ok := s.zsets[key]
		if !ok {
			z = make(map[string]float64)
			s.zsets[key] = z
		}
		z[member] = score
	})
}

func (b *memoryBatch) ZRem(key string, members ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		z := s.zsets[key]
		for _, m := range members {
			delete(z, m)
		}
		if len(z) == 0 {
			delete(s.zsets, key)
		}
	})
}

func (b *memoryBatch) ZRemRangeByRank(key string, start, stop int64) {
	b.ops = append(b.ops, func(s *MemoryStore) {
		ranked := s.zsetRankedLocked(key)
		lo, hi, ok := normalizeRange(start, stop, int64(len(ranked)))
		if !ok {
			return
		}
		z := s.zsets[key]
		for _, m := range ranked[lo : hi+1] {
			delete(z, m)
		}
		if len(z) == 0 {
			delete(s.zsets, key)
		}
	})
}

func (b *memoryBatch) Del(keys ...string) {
	b.ops = append(b.ops, func(s *MemoryStore) { s.delLocked(keys...) })
}

func (b *memoryBatch) Exec(_ context.Context) error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		op(b.store)
	}
	b.ops = nil
	return nil
}

// normalizeRange 将含负索引的闭区间 [start, stop] 规范到 [0, length)，
// 区间越界或为空时 ok 为 false
func normalizeRange(start, stop, length int64) (lo, hi int64, ok bool) {
	if length == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += length
	}
	if stop < 0 {
		stop += length
	}
	if start < 0 {
		start = 0
	}
	if stop >= length {
		stop = length - 1
	}
	if start > stop || start >= length {
		return 0, 0, false
	}
	return start, stop, true
}

func copyHash(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
