package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BarPull/internal/domain/models"
	domrepo "BarPull/internal/domain/repository"
	pkgkafka "BarPull/pkg/kafka"
)

// KafkaBarsHandler consumes BarBatch envelopes and writes them to storage.
// Records are revalidated since the wire is untrusted.
type KafkaBarsHandler struct {
	topic     string
	converter *BarConverter
	store     domrepo.BarSink
	metrics   domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, converter *BarConverter, store domrepo.BarSink, metrics domrepo.Metrics) *KafkaBarsHandler {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &KafkaBarsHandler{topic: topic, converter: converter, store: store, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var batch models.BarBatch
	if err := json.Unmarshal(b, &batch); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bar batch: %w", err)
	}
	key := batch.Key()
	if key.Symbol == "" || key.Interval == "" {
		h.metrics.RecordError("schema")
		return &models.SchemaError{Reason: "batch missing symbol or interval", Row: -1}
	}

	conv, err := h.converter.Convert(batch.FetchResult(), true)
	if err != nil {
		h.metrics.RecordError(ErrorKind(err))
		return err
	}
	h.metrics.RecordDropped(key.Provider, conv.Dropped)
	if len(conv.Bars) == 0 {
		return nil
	}

	start := time.Now()
	err = h.store.WriteBars(ctx, key, conv.Bars)
	h.metrics.RecordLatency("consumer_store", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return fmt.Errorf("store bars: %w", err)
	}
	h.metrics.RecordStored("clickhouse", key.Provider, len(conv.Bars))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
