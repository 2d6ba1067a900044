package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"appfeed/internal/observability"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to a topic, keyed by Event.Key.
// Writes are batched in the background; delivery results are reported
// through completed.
type KafkaPublisher struct {
	w     messageWriter
	topic string
}

// NewKafkaPublisher returns a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	p := &KafkaPublisher{topic: topic}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// Publish enqueues event. Only enqueue failures are returned; broker errors
// surface in completed.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: b,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	})
	if err != nil {
		observability.FeedEventsPublished.WithLabelValues(string(event.Type), "kafka", "error").Inc()
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}
	return nil
}

const eventTypeHeader = "event_type"

// completed is the kafka.Writer completion callback for a flushed batch.
func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		observability.LogAsyncOperationError(context.Background(), "kafka_write", err, map[string]interface{}{
			"topic":    p.topic,
			"messages": len(msgs),
		})
	}
	for _, m := range msgs {
		observability.FeedEventsPublished.WithLabelValues(messageType(m), "kafka", outcome).Inc()
	}
}

func messageType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == eventTypeHeader {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Close flushes pending writes.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
