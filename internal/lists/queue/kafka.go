package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"listmgmt/internal/lists/models"
	"listmgmt/internal/platform/kafka/consumer"
)

// Publisher is the producer side of the Kafka transport.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaQueue publishes jobs to a topic keyed by list id, so every job of a
// list lands on the same partition.
type KafkaQueue struct {
	publisher Publisher
	topic     string
}

func NewKafka(publisher Publisher, topic string) (*KafkaQueue, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &KafkaQueue{publisher: publisher, topic: topic}, nil
}

// Enqueue returns once the broker has acknowledged the job.
func (q *KafkaQueue) Enqueue(ctx context.Context, job models.Job) error {
	payload, err := Encode(job)
	if err != nil {
		return err
	}
	if err := q.publisher.Publish(ctx, q.topic, []byte(job.PartitionKey()), payload); err != nil {
		return fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return nil
}

// MessageHandler decodes consumed records and hands them to a job handler.
// Undecodable records are logged and skipped.
type MessageHandler struct {
	jobs   Handler
	logger *slog.Logger
}

func NewMessageHandler(jobs Handler, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{jobs: jobs, logger: logger}
}

func (h *MessageHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	job, err := Decode(msg.Value)
	if err != nil {
		h.logger.ErrorContext(ctx, "discarding undecodable job",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	return h.jobs.Handle(ctx, job)
}
