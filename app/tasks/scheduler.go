package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultInterval  = 24 * time.Hour
	defaultQueueSize = 16
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type SchedulerConfig struct {
	Interval    time.Duration
	WorkerCount int
	TaskTimeout time.Duration // zero leaves runs bounded only by collector HTTP timeouts
	RunOnStart  bool
	Retention   time.Duration // zero disables archive pruning
}

// Scheduler enqueues a digest run every interval and executes queued tasks
// on a fixed worker pool. One worker serializes runs so that two runs never
// write the same report concurrently.
type Scheduler struct {
	runner      Runner
	pruner      Pruner
	interval    time.Duration
	workerCount int
	taskTimeout time.Duration
	runOnStart  bool
	retention   time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(runner Runner, pruner Pruner, cfg SchedulerConfig) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}

	return &Scheduler{
		runner:      runner,
		pruner:      pruner,
		interval:    cfg.Interval,
		workerCount: cfg.WorkerCount,
		taskTimeout: cfg.TaskTimeout,
		runOnStart:  cfg.RunOnStart,
		retention:   cfg.Retention,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, defaultQueueSize),
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

		if s.runOnStart {
			s.enqueueTasks(TriggerStartup)
		}

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks(TriggerSchedule)
			}
		}
	}()

	slog.Info("Scheduler started", "interval", s.interval, "workers", s.workerCount, "run_on_start", s.runOnStart)
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

// TriggerRun queues an on-demand digest run and returns its task ID.
func (s *Scheduler) TriggerRun(trigger Trigger) (string, error) {
	task := NewRunDigestTask(trigger, s.runner)
	if err := s.EnqueueTask(task); err != nil {
		return "", err
	}

	slog.Debug("Digest run queued", "id", task.GetID(), "trigger", string(trigger))

	return task.GetID(), nil
}

func (s *Scheduler) enqueueTasks(trigger Trigger) {
	if _, err := s.TriggerRun(trigger); err != nil {
		slog.Warn("Failed to enqueue RunDigestTask", "trigger", string(trigger), "error", err)
	}

	if s.pruner == nil || s.retention <= 0 {
		return
	}

	pruneTask := NewPruneArchiveTask(trigger, s.pruner, s.retention)
	if err := s.EnqueueTask(pruneTask); err != nil {
		slog.Warn("Failed to enqueue PruneArchiveTask", "trigger", string(trigger), "error", err)
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

	var (
		taskCtx context.Context
		cancel  context.CancelFunc
	)
	if s.taskTimeout > 0 {
		taskCtx, cancel = context.WithTimeout(s.ctx, s.taskTimeout)
	} else {
		taskCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	if err := task.Execute(taskCtx); err != nil {
		slog.Error("Worker task execution failed",
			"worker_id", workerID,
			"type", string(task.GetType()),
			"id", task.GetID(),
			"trigger", string(task.GetTrigger()),
			"duration", task.GetDuration(),
			"error", err)
	}
}
