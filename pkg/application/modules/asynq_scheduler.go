package modules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

type AsynqSchedule struct {
	Cronspec string
	Task     *asynq.Task
}

// AsynqScheduler enqueues periodic tasks for the asynq worker.
type AsynqScheduler struct {
	RedisUsername string
	RedisPassword string
	RedisAddress  string
	RedisDB       int
}

func (s AsynqScheduler) Run(
	ctx context.Context,
	g *errgroup.Group,
	schedules ...AsynqSchedule,
) {
	g.Go(func() error {
		redisConnection := asynq.RedisClientOpt{
			Addr:     s.RedisAddress,
			Username: s.RedisUsername,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		}

		scheduler := asynq.NewScheduler(redisConnection, nil)

		for _, schedule := range schedules {
			if _, err := scheduler.Register(schedule.Cronspec, schedule.Task); err != nil {
				return fmt.Errorf("scheduler.Register: %w", err)
			}
		}

		go func() {
			<-ctx.Done()
			scheduler.Shutdown()
		}()

		logger(ctx).Info("asynq scheduler started", slog.String("redis-address", s.RedisAddress))

		if err := scheduler.Run(); err != nil {
			return fmt.Errorf("scheduler.Run: %w", err)
		}

		logger(ctx).Info("asynq scheduler stopped")

		return nil
	})
}
