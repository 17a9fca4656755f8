package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulstaab/headless-rss/app/cfg"
	"github.com/paulstaab/headless-rss/app/email"
	"github.com/paulstaab/headless-rss/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler periodically enqueues a refresh task per due feed and one
// mailbox poll per sweep. Failed tasks are not retried; the per-feed refresh
// interval already brings a broken feed back at its own cadence.
type Scheduler struct {
	feedService  *feed.Service
	emailService *email.Service
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(feedService *feed.Service, emailService *email.Service) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		feedService:  feedService,
		emailService: emailService,
		interval:     time.Duration(cfg.UpdateFrequencyMin) * time.Minute,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	due, err := s.feedService.Due(time.Now())
	if err != nil {
		slog.Error("Failed to load due feeds", "error", err)
		return
	}

	slog.Debug("Scheduling refresh tasks", "due_feeds", len(due))

	for _, f := range due {
		task := NewRefreshFeedTask(f, s.feedService)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue RefreshFeedTask", "feed", f.URL, "error", err)
		}
	}

	if err := s.EnqueueTask(NewPollMailboxesTask(s.emailService)); err != nil {
		slog.Warn("Failed to enqueue PollMailboxesTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID,
			"type", string(task.GetType()), "id", task.GetID(), "error", err)
	}
}
