package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ossy/pkg/errors"
)

type fakeWriter struct {
	topic    string
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	writers := map[string]*fakeWriter{}
	producer := NewProducerWithWriter(func(topic string) MessageWriter {
		w := &fakeWriter{topic: topic}
		writers[topic] = w
		return w
	})

	event := map[string]any{"runId": "r-1", "tokenCount": 3}
	require.NoError(t, producer.Publish(context.Background(), TopicScreeningEvents, "r-1", event))
	require.NoError(t, producer.Publish(context.Background(), TopicScreeningEvents, "r-2", event))

	require.Len(t, writers, 1, "one writer per topic")
	w := writers[TopicScreeningEvents]
	require.Len(t, w.messages, 2)
	assert.Equal(t, "r-1", string(w.messages[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "r-1", decoded["runId"])

	require.NoError(t, producer.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishFailure(t *testing.T) {
	producer := NewProducerWithWriter(func(topic string) MessageWriter {
		return &fakeWriter{err: errors.New("broker down")}
	})

	err := producer.Publish(context.Background(), TopicScreeningEvents, "k", map[string]string{})
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Contains(t, err.Error(), "broker down")
}

func TestProducer_MarshalFailure(t *testing.T) {
	producer := NewProducerWithWriter(func(topic string) MessageWriter { return &fakeWriter{} })

	err := producer.Publish(context.Background(), TopicScreeningEvents, "k", map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
