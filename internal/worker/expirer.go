package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"topar_market/pkg/contextx"
)

const TaskListingExpire = "listing:expire"

// NewListingExpireTask задача периодического снятия просроченных объявлений.
func NewListingExpireTask() *asynq.Task {
	return asynq.NewTask(TaskListingExpire, nil)
}

type listingExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// ListingExpirer обработчик задачи listing:expire.
type ListingExpirer struct {
	listings listingExpirer
}

func NewListingExpirer(listings listingExpirer) *ListingExpirer {
	return &ListingExpirer{listings: listings}
}

func (e *ListingExpirer) Handle(ctx context.Context, _ *asynq.Task) error {
	expired, err := e.listings.ExpireOverdue(ctx)
	if err != nil {
		return err
	}

	if expired > 0 {
		contextx.LoggerFromContextOrDefault(ctx).Info(
			"listings expired",
			slog.Int("count", expired),
		)
	}

	return nil
}
