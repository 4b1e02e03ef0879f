package kafka

import (
	"Ripple/internal/cache"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

const viewTable = "post_views"

// ViewsHandler 消费阅读记录表的 CDC 事件，阅读量只增不减
type ViewsHandler struct {
	posts *cache.PostCache
}

func NewViewsHandler(posts *cache.PostCache) *ViewsHandler {
	return &ViewsHandler{posts: posts}
}

func (s *ViewsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("post view consumer setup")
	return nil
}

func (s *ViewsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("post view consumer cleanup")
	return nil
}

func (s *ViewsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-view consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-view process batch error", "err", err)
		return err
	}
	return nil
}

func (s *ViewsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, viewTable)
	if err != nil {
		return err
	}
	if canalMsg.Type != INSERT {
		return nil
	}

	postID := rowString(canalMsg.Data[0], "post_id")
	if postID == "" {
		return nil
	}
	return s.posts.RecordEngagement(ctx, postID, cache.CounterViews, 1)
}
