package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoSuchKeyMatchesRedisReply(t *testing.T) {
	// RENAME 源键缺失时 Redis 的原始回复
	assert.True(t, isNoSuchKey(errors.New("ERR no such key")))

	assert.False(t, isNoSuchKey(nil))
	assert.False(t, isNoSuchKey(errors.New("ERR wrong number of arguments")))
	assert.False(t, isNoSuchKey(errors.New("connection refused")))
}
