package kafka

import (
	"Ripple/internal/cache"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

const reactionTable = "post_reactions"

// ReactionsHandler 消费点赞/点踩表的 CDC 事件并增量维护缓存计数。
// 计数变更会同时打脏标记并触发全局榜重排，都在 PostCache 内完成。
type ReactionsHandler struct {
	posts *cache.PostCache
}

func NewReactionsHandler(posts *cache.PostCache) *ReactionsHandler {
	return &ReactionsHandler{posts: posts}
}

func (s *ReactionsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("post reaction consumer setup")
	return nil
}

func (s *ReactionsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("post reaction consumer cleanup")
	return nil
}

func (s *ReactionsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-reaction consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-reaction process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ReactionsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, reactionTable)
	if err != nil {
		return err
	}

	switch canalMsg.Type {
	case INSERT:
		return s.apply(ctx, canalMsg.Data[0], 1)
	case DELETE:
		return s.apply(ctx, canalMsg.Data[0], -1)
	case UPDATE:
		// 点赞改点踩（或反向）：旧类型减一，新类型加一
		if len(canalMsg.Old) > 0 {
			old := map[string]interface{}{
				"post_id": canalMsg.Data[0]["post_id"],
				"type":    canalMsg.Old[0]["type"],
			}
			if err = s.apply(ctx, old, -1); err != nil {
				return err
			}
		}
		return s.apply(ctx, canalMsg.Data[0], 1)
	default:
		return nil
	}
}

func (s *ReactionsHandler) apply(ctx context.Context, row map[string]interface{}, delta int64) error {
	postID := rowString(row, "post_id")
	if postID == "" {
		return nil
	}
	counter := cache.CounterLikes
	if rowString(row, "type") == "dislike" {
		counter = cache.CounterDislikes
	}
	return s.posts.RecordEngagement(ctx, postID, counter, delta)
}
