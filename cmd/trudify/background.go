package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/trudify/trudify-core/internal/config"
	"github.com/trudify/trudify-core/internal/queue"
	"github.com/trudify/trudify-core/internal/quota"
	"github.com/trudify/trudify-core/internal/service"
	"github.com/trudify/trudify-core/pkg/logger/sl"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// background holds everything that either lives in redis or, without a
// redis address, in process.
type background struct {
	invites     service.InviteEnqueuer
	withdrawals *quota.Limiter
	rateStore   limiter.Store
	closers     []func()
}

// Close releases resources in reverse order of creation.
func (b *background) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func setupBackground(ctx context.Context, cfg *config.Config, log *slog.Logger, handler queue.Handler) (*background, error) {
	if cfg.Redis.Addr == "" {
		log.Warn("redis is not configured, running invites and counters in process")

		local := queue.NewLocalQueue(log, handler)

		go func() {
			for err := range local.Errors() {
				log.Error("invite job failed", sl.Err(err))
			}
		}()

		return &background{
			invites:     local,
			withdrawals: quota.NewMemoryLimiter(cfg.Applications.MaxWithdrawalsPerMonth),
			rateStore:   memory.NewStore(),
			closers:     []func(){local.Close},
		}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	bg := &background{closers: []func(){func() { _ = rdb.Close() }}}

	if err := rdb.Ping(ctx).Err(); err != nil {
		bg.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	withdrawals, err := quota.NewRedisLimiter(rdb, cfg.Applications.MaxWithdrawalsPerMonth)
	if err != nil {
		bg.Close()
		return nil, err
	}
	bg.withdrawals = withdrawals

	bg.rateStore, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "trudify:ratelimit"})
	if err != nil {
		bg.Close()
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)
	bg.closers = append(bg.closers, func() { _ = client.Close() })
	bg.invites = queue.NewAsynqQueue(client, log)

	mux := asynq.NewServeMux()
	queue.NewWorker(log, handler).Register(mux)

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			queue.QueueInvites: 1,
		},
	})
	if err := worker.Start(mux); err != nil {
		bg.Close()
		return nil, fmt.Errorf("failed to start invite worker: %w", err)
	}
	bg.closers = append(bg.closers, worker.Shutdown)

	log.Info("background jobs use redis", slog.String("addr", cfg.Redis.Addr))

	return bg, nil
}
