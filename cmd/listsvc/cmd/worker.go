package cmd

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"listmgmt/internal/lists/cache"
	"listmgmt/internal/lists/queue"
	"listmgmt/internal/platform/kafka"
	"listmgmt/internal/platform/kafka/consumer"
	"listmgmt/internal/platform/metrics"
	"listmgmt/internal/platform/redis"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Apply durability jobs from Kafka",
		Long:  "Consume durability jobs from the configured topic and apply them to the durable store, one partition at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.work(ctx)
		},
	}
}

func (a *app) work(ctx context.Context) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	st, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	kcfg := a.kafkaConfig()
	if err := kafka.EnsureTopic(ctx, kcfg); err != nil {
		return err
	}

	// Only a shared Redis cache is worth repairing from a separate process.
	var keys queue.KeyInvalidator
	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
		keys = cache.NewRedis(client.Client, cache.WithTombstoneTTL(a.cfg.Cache.TombstoneTTL))
	}

	opts := []queue.WorkerOption{
		queue.WithWorkerLogger(a.logger),
		queue.WithWorkerMetrics(m),
		queue.WithApplyTimeout(a.cfg.Timeouts.Apply),
	}
	if keys != nil {
		opts = append(opts, queue.WithKeyInvalidator(keys))
	}
	worker := queue.NewWorker(st, opts...)
	c, err := consumer.New(kcfg, queue.NewMessageHandler(worker, a.logger), consumer.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer c.Close()

	a.logger.Info("durability worker started", "topic", kcfg.Topic, "group", kcfg.ConsumerGroup)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
