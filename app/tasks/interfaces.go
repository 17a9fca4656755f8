package tasks

import (
	"context"
	"time"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetLabel() string
	Start()
	GetDuration() time.Duration
}

// TaskSchedulerInterface is used by the main application to manage background
// task processing.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
