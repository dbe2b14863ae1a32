package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/twmb/franz-go/pkg/kgo"

	"certo/pkg/platform/circuit"
)

// KafkaSink publishes notifications to a Kafka topic for the downstream
// delivery system. Records are keyed by recipient so per-user ordering is
// preserved across partitions.
//
// A circuit breaker guards the producer: after repeated produce failures the
// sink drops records instead of queueing against a dead broker. Delivery is
// best-effort either way; the log sink remains the durable trace.
type KafkaSink struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	skipped atomic.Int64
	logger  *slog.Logger
}

// probeEvery is how many records are dropped between probes while the
// circuit is open.
const probeEvery = 10

// NewKafkaSink connects a producer to the given brokers.
func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaSink{
		client:  client,
		topic:   topic,
		breaker: circuit.New("kafka-notifications"),
		logger:  logger,
	}, nil
}

// Send produces the notification asynchronously. Produce errors surface in
// the callback and are logged; the triggering operation has already
// committed, so there is nothing to roll back.
func (s *KafkaSink) Send(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if s.breaker.IsOpen() {
		// Drop most records while open, letting one through periodically as
		// a probe; its produce callback closes the breaker on recovery.
		if s.skipped.Add(1)%probeEvery != 0 {
			s.logger.Debug("kafka circuit open, dropping notification",
				"topic", s.topic,
				"template", n.Template,
			)
			return nil
		}
	}
	record := &kgo.Record{
		Key:   []byte(n.UserID.String()),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			if _, change := s.breaker.RecordFailure(); change.Opened {
				s.logger.Error("kafka notification circuit opened", "topic", s.topic)
			}
			s.logger.Warn("kafka notification produce failed",
				"topic", s.topic,
				"template", n.Template,
				"error", err,
			)
			return
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.Info("kafka notification circuit closed", "topic", s.topic)
		}
	})
	return nil
}

// Close flushes buffered records and releases the producer.
func (s *KafkaSink) Close() {
	_ = s.client.Flush(context.Background())
	s.client.Close()
}
