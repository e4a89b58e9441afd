package repository

import (
	"context"

	"MandiPulse/internal/domain/models"
	domrepo "MandiPulse/internal/domain/repository"
)

// topicPublisher is satisfied by *pkg/kafka.Producer.
type topicPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaVerdictPublisher implements VerdictPublisher for Kafka. Messages are
// keyed by market name so one market's verdicts stay ordered.
type KafkaVerdictPublisher struct {
	producer topicPublisher
	topic    string
}

var _ domrepo.VerdictPublisher = (*KafkaVerdictPublisher)(nil)

func NewKafkaVerdictPublisher(producer topicPublisher, topic string) *KafkaVerdictPublisher {
	return &KafkaVerdictPublisher{producer: producer, topic: topic}
}

func (p *KafkaVerdictPublisher) Publish(ctx context.Context, v *models.PriceVerdict) error {
	return p.producer.Publish(ctx, p.topic, []byte(v.Market), v)
}

func (p *KafkaVerdictPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
