package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/platform/kafka/consumer"
)

type capturePublisher struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func TestKafkaQueueKeysByListID(t *testing.T) {
	pub := &capturePublisher{}
	q, err := NewKafka(pub, "list-jobs")
	require.NoError(t, err)

	j := models.NewJob(17, models.ActionDelete, "gone", "", "", "bob", time.Now())
	require.NoError(t, q.Enqueue(context.Background(), j))

	assert.Equal(t, "list-jobs", pub.topic)
	assert.Equal(t, "17", string(pub.key))
	decoded, err := Decode(pub.value)
	require.NoError(t, err)
	assert.Equal(t, j.ID, decoded.ID)
}

func TestKafkaQueueSurfacesPublishError(t *testing.T) {
	q, err := NewKafka(&capturePublisher{err: errors.New("broker down")}, "list-jobs")
	require.NoError(t, err)

	err = q.Enqueue(context.Background(), models.NewJob(1, models.ActionAdd, "v", "", "", "bob", time.Now()))
	assert.ErrorContains(t, err, "broker down")
}

func TestMessageHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("decodes and forwards", func(t *testing.T) {
		var got models.Job
		h := NewMessageHandler(HandlerFunc(func(_ context.Context, job models.Job) error {
			got = job
			return nil
		}), logger)

		j := models.NewJob(3, models.ActionAdd, "v", "", "", "bob", time.Now())
		payload, err := Encode(j)
		require.NoError(t, err)

		require.NoError(t, h.Handle(context.Background(), &consumer.Message{Value: payload}))
		assert.Equal(t, j.ID, got.ID)
	})

	t.Run("skips poison records", func(t *testing.T) {
		called := false
		h := NewMessageHandler(HandlerFunc(func(context.Context, models.Job) error {
			called = true
			return nil
		}), logger)

		assert.NoError(t, h.Handle(context.Background(), &consumer.Message{Value: []byte("not msgpack")}))
		assert.False(t, called)
	})
}
