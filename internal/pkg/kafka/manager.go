package kafka

import (
	"Ripple/internal/api/config"
	"Ripple/internal/cache"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	reactionConsumer sarama.ConsumerGroup
	reactionHandler  sarama.ConsumerGroupHandler

	viewConsumer sarama.ConsumerGroup
	viewHandler  sarama.ConsumerGroupHandler

	commentConsumer sarama.ConsumerGroup
	commentHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, posts *cache.PostCache) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	reactionConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaReactionConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	viewConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaViewConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	commentConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaCommentConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		reactionConsumer: reactionConsumer,
		reactionHandler:  NewReactionsHandler(posts),
		viewConsumer:     viewConsumer,
		viewHandler:      NewViewsHandler(posts),
		commentConsumer:  commentConsumer,
		commentHandler:   NewCommentsHandler(posts),
	}, nil
}

// Start 启动所有消费者并阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	// 启动 Reaction Consumer
	go func() {
		topic := cfg.KafkaReactionConsumer.Topic
		log.Info("Reaction consumer started", "topic", topic)
		for {
			if err := m.reactionConsumer.Consume(ctx, []string{topic}, m.reactionHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 启动 View Consumer
	go func() {
		topic := cfg.KafkaViewConsumer.Topic
		log.Info("View consumer started", "topic", topic)
		for {
			if err := m.viewConsumer.Consume(ctx, []string{topic}, m.viewHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 启动 Comment Consumer
	go func() {
		topic := cfg.KafkaCommentConsumer.Topic
		log.Info("Comment consumer started", "topic", topic)
		for {
			if err := m.commentConsumer.Consume(ctx, []string{topic}, m.commentHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.reactionConsumer.Close(); err != nil {
		log.Error("Failed to close reaction consumer", "err", err)
	}
	if err := m.viewConsumer.Close(); err != nil {
		log.Error("Failed to close view consumer", "err", err)
	}
	if err := m.commentConsumer.Close(); err != nil {
		log.Error("Failed to close comment consumer", "err", err)
	}

	return nil
}
