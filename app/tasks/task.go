package tasks

import (
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeRefreshFeed   TaskType = "refresh_feed"
	TaskTypePollMailboxes TaskType = "poll_mailboxes"
)

type Task struct {
	ID        string
	Type      TaskType
	Label     string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetLabel() string {
	return t.Label
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, label string) Task {
	return Task{
		ID:    uuid.NewString(),
		Type:  taskType,
		Label: label,
	}
}
