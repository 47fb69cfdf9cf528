package events

import (
	"context"

	"ossy/internal/adapters/kafka"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// Publisher emits screening events
type Publisher interface {
	PublishScreeningCompleted(ctx context.Context, event *ScreeningCompleted) error
}

// EventProducer is the transport the Kafka publisher writes to
type EventProducer interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

var _ EventProducer = (*kafka.Producer)(nil)

// KafkaPublisher publishes events to Kafka
type KafkaPublisher struct {
	producer EventProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaPublisher creates a new event publisher. An empty topic uses kafka.TopicScreeningEvents.
func NewKafkaPublisher(producer EventProducer, topic string) *KafkaPublisher {
	if topic == "" {
		topic = kafka.TopicScreeningEvents
	}
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishScreeningCompleted publishes a run summary keyed by run ID
func (p *KafkaPublisher) PublishScreeningCompleted(ctx context.Context, event *ScreeningCompleted) error {
	if event == nil {
		return errors.Wrap(errors.ErrInvalidInput, "nil event")
	}

	if err := p.producer.Publish(ctx, p.topic, event.RunID, event); err != nil {
		return errors.Wrap(err, "publish screening event")
	}

	p.log.Debugw("Event published", "topic", p.topic, "type", event.Type, "run_id", event.RunID)
	return nil
}

// NoopPublisher drops every event, used when Kafka is not configured
type NoopPublisher struct{}

// PublishScreeningCompleted does nothing
func (NoopPublisher) PublishScreeningCompleted(context.Context, *ScreeningCompleted) error {
	return nil
}
