// Package consumer runs a consumer-group loop that hands each partition's
// records to a handler in offset order.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"listmgmt/internal/platform/kafka"
)

const defaultMaxPollRecords = 500

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

// Handler processes a message. A returned error is logged and the message is
// still committed; redelivery is the handler's own concern.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer polls a consumer group. Partitions of one poll are processed in
// parallel, records within a partition strictly in order, and offsets are
// committed after the whole poll has been handled.
type Consumer struct {
	client         *kgo.Client
	handler        Handler
	logger         *slog.Logger
	maxPollRecords int
}

// Option configures a Consumer.
type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func WithMaxPollRecords(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.maxPollRecords = n
		}
	}
}

// New joins cfg.ConsumerGroup on cfg.Topic.
func New(cfg kafka.Config, handler Handler, opts ...Option) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("consumer handler is required")
	}
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("consumer group is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	)
	if err != nil {
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	c := &Consumer{
		client:         client,
		handler:        handler,
		logger:         slog.Default(),
		maxPollRecords: defaultMaxPollRecords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run consumes until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollRecords(ctx, c.maxPollRecords)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var g errgroup.Group
		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			if len(p.Records) == 0 {
				return
			}
			g.Go(func() error {
				for _, rec := range p.Records {
					c.handle(ctx, rec)
				}
				return nil
			})
		})
		_ = g.Wait()

		if records := fetches.Records(); len(records) > 0 {
			if err := c.client.CommitRecords(ctx, records...); err != nil {
				c.logger.ErrorContext(ctx, "kafka commit failed", "error", err, "records", len(records))
			}
		}
		c.client.AllowRebalance()
	}
}

func (c *Consumer) handle(ctx context.Context, rec *kgo.Record) {
	msg := &Message{
		Topic:     rec.Topic,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Key:       rec.Key,
		Value:     rec.Value,
	}
	if err := c.handler.Handle(ctx, msg); err != nil {
		c.logger.WarnContext(ctx, "message handler failed, skipping",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
	}
}

func (c *Consumer) Close() {
	c.client.Close()
}
