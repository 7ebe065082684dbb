package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	pkgkafka "BarPull/pkg/kafka"
)

// BatchPublisher is the subset of *pkgkafka.Producer the sink needs.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaBarPublisher forwards bars as BarBatch envelopes keyed by series, so
// one series stays ordered on one partition.
type KafkaBarPublisher struct {
	producer  BatchPublisher
	topic     string
	batchSize int
}

var _ domrepo.BarSink = (*KafkaBarPublisher)(nil)

func NewKafkaBarPublisher(p BatchPublisher, topic string, batchSize int) *KafkaBarPublisher {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &KafkaBarPublisher{producer: p, topic: topic, batchSize: batchSize}
}

func (k *KafkaBarPublisher) WriteBars(ctx context.Context, key models.SeriesKey, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	msgKey := []byte(key.String())
	msgs := make([]pkgkafka.Message, 0, (len(bars)+k.batchSize-1)/k.batchSize)
	for lo := 0; lo < len(bars); lo += k.batchSize {
		hi := min(lo+k.batchSize, len(bars))
		value, err := json.Marshal(models.NewBarBatch(key, bars[lo:hi]))
		if err != nil {
			return fmt.Errorf("encode bar batch: %w", err)
		}
		msgs = append(msgs, pkgkafka.Message{Key: msgKey, Value: value})
	}
	return k.producer.PublishBatch(ctx, k.topic, msgs)
}

func (k *KafkaBarPublisher) Close() error { return k.producer.Close() }
