package kafka

import (
	"Ripple/internal/cache"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

const commentTable = "post_comments"

// CommentsHandler 消费评论表的 CDC 事件并维护评论计数
type CommentsHandler struct {
	posts *cache.PostCache
}

func NewCommentsHandler(posts *cache.PostCache) *CommentsHandler {
	return &CommentsHandler{posts: posts}
}

func (s *CommentsHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("post comment consumer setup")
	return nil
}

func (s *CommentsHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("post comment consumer cleanup")
	return nil
}

func (s *CommentsHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-comment consume claim")
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-comment process batch error", "err", err)
		return err
	}
	return nil
}

func (s *CommentsHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg, commentTable)
	if err != nil {
		return err
	}

	postID := rowString(canalMsg.Data[0], "post_id")
	if postID == "" {
		return nil
	}

	switch canalMsg.Type {
	case INSERT:
		return s.posts.RecordEngagement(ctx, postID, cache.CounterComments, 1)
	case DELETE:
		return s.posts.RecordEngagement(ctx, postID, cache.CounterComments, -1)
	default:
		return nil
	}
}
