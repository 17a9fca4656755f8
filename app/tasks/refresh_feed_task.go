package tasks

import (
	"context"
	"log/slog"

	"github.com/paulstaab/headless-rss/app/database"
	"github.com/paulstaab/headless-rss/app/feed"
)

type RefreshFeedTask struct {
	Task
	feed    database.Feed
	service *feed.Service
}

func NewRefreshFeedTask(f database.Feed, service *feed.Service) *RefreshFeedTask {
	return &RefreshFeedTask{
		Task:    NewTask(TaskTypeRefreshFeed, f.URL),
		feed:    f,
		service: service,
	}
}

func (t *RefreshFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.service.Update(ctx, &t.feed); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"feed", t.GetLabel(),
		"duration", t.GetDuration())

	return nil
}
