package cache

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_FreshPostBeatsOldPost(t *testing.T) {
	now := time.Now()
	stats := Stats{Likes: 10, Comments: 3, Views: 100}

	fresh := Score(stats, now.Add(-1*time.Hour), now)
	old := Score(stats, now.Add(-72*time.Hour), now)

	assert.Greater(t, fresh, old, "相同互动量下新帖得分应高于旧帖")
}

func TestScore_EngagementIncreasesScore(t *testing.T) {
	now := time.Now()
	createdAt := now.Add(-6 * time.Hour)

	base := Score(Stats{Likes: 1}, createdAt, now)
	boosted := Score(Stats{Likes: 1, Comments: 20, Reposts: 5}, createdAt, now)

	assert.Greater(t, boosted, base)
}

func TestScore_DislikesDoNotRaiseScore(t *testing.T) {
	now := time.Now()
	createdAt := now.Add(-2 * time.Hour)

	without := Score(Stats{Likes: 4}, createdAt, now)
	with := Score(Stats{Likes: 4, Dislikes: 1000}, createdAt, now)

	assert.Equal(t, without, with, "点踩不参与正向热度")
}

func TestScore_ZeroStatsStillGetsFreshnessBoost(t *testing.T) {
	now := time.Now()

	score := Score(Stats{}, now, now)
	require.False(t, math.IsNaN(score))
	assert.InDelta(t, 10.0, score, 0.01, "零互动新帖只剩新鲜度加成")
}

func TestScore_NegativeCountersClampToZeroEngagement(t *testing.T) {
	now := time.Now()

	score := Score(Stats{Likes: -1, Comments: -3, Views: -100}, now, now)
	require.False(t, math.IsNaN(score) || math.IsInf(score, 0), "异常负计数不能产生非有限分数")
	assert.InDelta(t, Score(Stats{}, now, now), score, 1e-9, "负计数按零互动处理")
}

func TestScore_DecaysMonotonically(t *testing.T) {
	now := time.Now()
	stats := Stats{Likes: 50, Comments: 10, Views: 500}

	prev := math.Inf(1)
	for hours := 0; hours <= 96; hours += 12 {
		s := Score(stats, now.Add(-time.Duration(hours)*time.Hour), now)
		require.False(t, math.IsNaN(s) || math.IsInf(s, 0))
		assert.Less(t, s, prev, "帖龄 %dh 的分数应低于更年轻的帖子", hours)
		prev = s
	}
}
