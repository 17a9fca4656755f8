package tasks

import (
	"context"
	"log/slog"

	"github.com/paulstaab/headless-rss/app/email"
)

type PollMailboxesTask struct {
	Task
	service *email.Service
}

func NewPollMailboxesTask(service *email.Service) *PollMailboxesTask {
	return &PollMailboxesTask{
		Task:    NewTask(TaskTypePollMailboxes, "mailboxes"),
		service: service,
	}
}

func (t *PollMailboxesTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.service.FetchAll(ctx); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.GetType()),
		"duration", t.GetDuration())

	return nil
}
