package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	jwttoken "listmgmt/internal/jwt_token"
	"listmgmt/internal/lists/handler"
	"listmgmt/internal/lists/notify"
	"listmgmt/internal/lists/queue"
	"listmgmt/internal/lists/service"
	"listmgmt/internal/platform/httpserver"
	"listmgmt/internal/platform/kafka"
	"listmgmt/internal/platform/metrics"
	httptransport "listmgmt/internal/transport/http"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: "Serve the HTTP API. With the memory queue backend durability jobs are applied in process; " +
			"with the kafka backend they are published for the worker command.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	st, db, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	lookaside, redisClient, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	checks := map[string]httptransport.HealthCheck{"database": db.PingContext}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
	}

	authz, err := a.loadPolicy()
	if err != nil {
		return err
	}

	sink, err := a.notificationSink(m)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(sink,
		notify.WithBufferSize(a.cfg.Notify.BufferSize),
		notify.WithSendTimeout(a.cfg.Notify.SendTimeout),
		notify.WithLogger(a.logger),
		notify.WithMetrics(m),
	)

	// Background loops outlive the request context so they can drain after
	// the HTTP server stops.
	background, cancelBackground := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBackground()
	var bg errgroup.Group
	bg.Go(func() error { return dispatcher.Run(background) })

	var jobs service.Queue
	var memQueue *queue.MemoryQueue
	switch a.cfg.Queue.Backend {
	case "kafka":
		kcfg := a.kafkaConfig()
		if err := kafka.EnsureTopic(ctx, kcfg); err != nil {
			return err
		}
		producer, err := kafka.NewProducer(kcfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		checks["kafka"] = producer.Ping
		if jobs, err = queue.NewKafka(producer, kcfg.Topic); err != nil {
			return err
		}
	default:
		worker := queue.NewWorker(st,
			queue.WithWorkerLogger(a.logger),
			queue.WithWorkerMetrics(m),
		queue.WithApplyTimeout(a.cfg.Timeouts.Apply),
			queue.WithKeyInvalidator(lookaside),
		)
		memQueue = queue.NewMemory(worker,
			queue.WithShards(a.cfg.Queue.Shards),
			queue.WithShardDepth(a.cfg.Queue.ShardDepth),
			queue.WithLogger(a.logger),
		)
		bg.Go(func() error { return memQueue.Run(background) })
		jobs = memQueue
	}

	engine, err := service.New(lookaside, st, jobs, authz,
		service.WithLogger(a.logger),
		service.WithMetrics(m),
		service.WithNotifier(dispatcher),
		service.WithTimeouts(a.timeouts()),
	)
	if err != nil {
		return err
	}

	jwt := jwttoken.NewJWTService(a.cfg.Auth.JWTSigningKey, a.cfg.Auth.Issuer, a.cfg.Auth.Audience)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Lists:         handler.New(engine, a.logger),
		Authenticator: jwt,
		Logger:        a.logger,
		Checks:        checks,
	})

	srv := httpserver.New(a.cfg.Server.Addr, router)
	serveErr := httpserver.Run(ctx, srv, a.cfg.Server.ShutdownTimeout, a.logger)

	if memQueue != nil {
		a.logger.Info("draining durability queue", "pending", memQueue.Pending())
		memQueue.Close()
	}
	dispatcher.Close()
	if err := bg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		serveErr = errors.Join(serveErr, fmt.Errorf("background workers: %w", err))
	}
	return serveErr
}
