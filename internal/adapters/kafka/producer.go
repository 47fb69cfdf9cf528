package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"ossy/internal/metrics"
	"ossy/pkg/errors"
	"ossy/pkg/logger"
)

// MessageWriter is the part of kafka.Writer the producer needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles Kafka message publishing
type Producer struct {
	writers   map[string]MessageWriter
	mu        sync.Mutex
	newWriter func(topic string) MessageWriter
	log       *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers      []string
	WriteTimeout time.Duration
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	return NewProducerWithWriter(func(topic string) MessageWriter {
		return &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			WriteTimeout:           cfg.WriteTimeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Async:                  false, // Synchronous so failures reach the caller
		}
	})
}

// NewProducerWithWriter creates a producer over a custom writer factory
func NewProducerWithWriter(newWriter func(topic string) MessageWriter) *Producer {
	return &Producer{
		writers:   make(map[string]MessageWriter),
		newWriter: newWriter,
		log:       logger.Get().With("component", "kafka_producer"),
	}
}

// getWriter returns or creates a writer for a topic
func (p *Producer) getWriter(topic string) MessageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish sends a JSON-encoded event to a topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	err = p.getWriter(topic).WriteMessages(ctx, msg)
	metrics.RecordKafkaMessage(topic, err)
	if err != nil {
		p.log.Warnw("Failed to publish", "topic", topic, "key", key, "error", err)
		return errors.Wrapf(errors.Mark(err, errors.ErrUnavailable), "publish to %s", topic)
	}

	p.log.Debugw("Published", "topic", topic, "key", key, "size_bytes", len(data))
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Errorf("Failed to close writer for %s: %v", topic, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
