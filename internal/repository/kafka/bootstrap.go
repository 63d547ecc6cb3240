package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const bootstrapWait = 5 * time.Second

// BootstrapConsumer makes sure the topic exists before joining the group.
// A failure is logged only; the consumer keeps retrying fetches.
func BootstrapConsumer(ctx context.Context, cfg *ConsumerConfig, partitions int, log *zap.Logger) *Consumer {
	ensure(ctx, cfg.Brokers, cfg.Topic, partitions, log)
	if cfg.Logger == nil {
		cfg.Logger = log
	}
	return NewConsumer(cfg)
}

// BootstrapProducer falls back to broker-side auto-creation when the topic
// cannot be ensured.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, partitions int, log *zap.Logger) *Producer {
	ensure(ctx, brokers, topic, partitions, log)
	return NewProducer(brokers, topic, log)
}

func ensure(ctx context.Context, brokers []string, topic string, partitions int, log *zap.Logger) {
	err := EnsureTopic(ctx, brokers, TopicSpec{
		Name:          topic,
		NumPartitions: partitions,
		MaxWait:       bootstrapWait,
	}, log)
	if err != nil && log != nil {
		log.Warn("topic bootstrap failed", zap.String("topic", topic), zap.Error(err))
	}
}
