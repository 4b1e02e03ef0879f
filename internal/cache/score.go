package cache

import (
	"math"
	"time"
)

// 计分参数。engagement 取对数抑制头部效应，半衰期控制整体衰减，
// freshness 项衰减更快，保证零互动的新帖也有短暂曝光窗口。
const (
	weightComments = 5
	weightReposts  = 3
	weightQuotes   = 4
	weightLikes    = 2
	weightViews    = 0.5

	halfLifeHours    = 36.0
	boostFactorHours = 12.0
	freshnessBoost   = 10.0
)

// Stats 帖子互动计数。dislikes 参与展示与落库，不参与正向计分。
type Stats struct {
	Comments int64 `json:"comments"`
	Reposts  int64 `json:"reposts"`
	Quotes   int64 `json:"quotes"`
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
	Views    int64 `json:"views"`
}

// Score 加权对数互动 × 指数时间衰减 + 快衰减新鲜度补偿。
// 恒返回有限值；互动固定则随帖龄严格单调下降。
func Score(stats Stats, createdAt, now time.Time) float64 {
	weighted := weightComments*float64(stats.Comments) +
		weightReposts*float64(stats.Reposts) +
		weightQuotes*float64(stats.Quotes) +
		weightLikes*float64(stats.Likes) +
		weightViews*float64(stats.Views)
	// 计数被异常数据拉负时按零互动处理，对数永不取到负操作数
	if weighted < 0 {
		weighted = 0
	}
	engagement := math.Log(1 + weighted)

	ageHours := now.Sub(createdAt).Hours()
	timeDecay := math.Exp(-ageHours / halfLifeHours)
	freshness := freshnessBoost * math.Exp(-ageHours/boostFactorHours)

	return engagement*timeDecay + freshness
}
