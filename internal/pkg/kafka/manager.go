package kafka

import (
	"Courier/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理 IM 推送消费者
type ConsumerManager struct {
	pushConsumer sarama.ConsumerGroup
	pushHandler  sarama.ConsumerGroupHandler
	topic        string
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, pusher Pusher) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	pushConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaPushIM.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		pushConsumer: pushConsumer,
		pushHandler:  NewPushHandler(pusher),
		topic:        cfg.KafkaPushIM.Topic,
	}, nil
}

// Start 启动消费者，阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	go func() {
		for err := range m.pushConsumer.Errors() {
			log.Error("Error from push consumer", "err", err)
		}
	}()

	go func() {
		log.Info("IM push consumer started", "topic", m.topic)
		for {
			if err := m.pushConsumer.Consume(ctx, []string{m.topic}, m.pushHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.pushConsumer.Close(); err != nil {
		log.Error("Failed to close push consumer", "err", err)
	}
	return nil
}
