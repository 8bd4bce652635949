package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"metasignet/internal/platform/kafka/producer"
)

// DefaultTopic is the Kafka topic audit events are published to.
const DefaultTopic = "metasignet.audit"

type kafkaEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	Fingerprint string    `json:"fingerprint"`
	Action      string    `json:"action"`
	Outcome     string    `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	Device      string    `json:"device,omitempty"`
}

// KafkaStore publishes audit events to a Kafka topic. It is a write-only
// sink: reads happen from downstream consumers, not this process.
type KafkaStore struct {
	producer *producer.Producer
	topic    string
}

// NewKafkaStore creates a Kafka-backed audit sink. An empty topic selects
// DefaultTopic.
func NewKafkaStore(p *producer.Producer, topic string) *KafkaStore {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaStore{producer: p, topic: topic}
}

// Append publishes the event keyed by actor so per-actor ordering holds
// within a partition.
func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(kafkaEvent{
		Timestamp:   event.Timestamp,
		Actor:       event.Actor.String(),
		Fingerprint: event.Fingerprint,
		Action:      string(event.Action),
		Outcome:     event.Outcome,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		Device:      event.Device,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Actor.String()),
		Value: payload,
	})
}

// ListByActor is unsupported on the Kafka sink; audit queries belong to the
// downstream consumer that materializes the topic.
func (s *KafkaStore) ListByActor(_ context.Context, _ string) ([]Event, error) {
	return nil, fmt.Errorf("kafka audit sink is write-only")
}

var _ Store = (*KafkaStore)(nil)
