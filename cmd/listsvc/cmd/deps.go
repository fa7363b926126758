package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"listmgmt/internal/lists/cache"
	"listmgmt/internal/lists/notify"
	"listmgmt/internal/lists/service"
	"listmgmt/internal/lists/store"
	"listmgmt/internal/platform/database"
	"listmgmt/internal/platform/kafka"
	"listmgmt/internal/platform/metrics"
	"listmgmt/internal/platform/redis"
	"listmgmt/internal/policy"
)

func (a *app) openStore(ctx context.Context) (*store.SQLStore, *sql.DB, error) {
	db, dialect, err := database.Open(ctx, database.Config{
		Driver:       a.cfg.Database.Driver,
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, nil, err
	}
	st := store.NewSQL(db, dialect,
		store.WithLogger(a.logger),
		store.WithTxTimeout(a.cfg.Database.TxTimeout),
	)
	return st, db, nil
}

// openCache returns the Redis cache when configured, else the in-process
// one. The returned client is nil for the in-process cache.
func (a *app) openCache(ctx context.Context) (service.Cache, *redis.Client, error) {
	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		a.logger.Warn("redis not configured, using in-process cache")
		return cache.NewInMemory(a.cfg.Cache.TombstoneTTL), nil, nil
	}
	return cache.NewRedis(client.Client, cache.WithTombstoneTTL(a.cfg.Cache.TombstoneTTL)), client, nil
}

func (a *app) loadPolicy() (*policy.Policy, error) {
	if a.cfg.Policy.File == "" {
		return policy.Default(), nil
	}
	p, err := policy.LoadFile(a.cfg.Policy.File)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return p, nil
}

func (a *app) notificationSink(m *metrics.Metrics) (notify.Sink, error) {
	if a.cfg.Notify.SlackWebhookURL == "" {
		return notify.NewLogSink(a.logger), nil
	}
	return notify.NewSlack(a.cfg.Notify.SlackWebhookURL,
		notify.WithSlackMetrics(m),
		notify.WithSlackLogger(a.logger),
	)
}

func (a *app) kafkaConfig() kafka.Config {
	k := a.cfg.Kafka
	return kafka.Config{
		Brokers:           k.Brokers,
		Topic:             k.Topic,
		ConsumerGroup:     k.ConsumerGroup,
		ClientID:          k.ClientID,
		Partitions:        k.Partitions,
		ReplicationFactor: k.ReplicationFactor,
	}
}

func (a *app) timeouts() service.Timeouts {
	return service.Timeouts{
		Cache:   a.cfg.Timeouts.Cache,
		Store:   a.cfg.Timeouts.Store,
		Enqueue: a.cfg.Timeouts.Enqueue,
	}
}
