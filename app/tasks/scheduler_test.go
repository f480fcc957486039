package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/pipeline"
)

// MockRunner counts pipeline runs
type MockRunner struct {
	mu    sync.Mutex
	runs  int
	err   error
	delay time.Duration
	done  chan struct{}
}

func (m *MockRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	time.Sleep(m.delay)

	m.mu.Lock()
	m.runs++
	m.mu.Unlock()

	if m.done != nil {
		m.done <- struct{}{}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &pipeline.Result{RunID: "run-id"}, nil
}

func (m *MockRunner) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

// MockPruner records prune cutoffs
type MockPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (m *MockPruner) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return 2, nil
}

func (m *MockPruner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cutoffs)
}

func waitFor(t *testing.T, done chan struct{}, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out waiting for run %d", i+1)
		}
	}
}

func TestNewScheduler_Defaults(t *testing.T) {
	s := NewScheduler(&MockRunner{}, nil, SchedulerConfig{})

	if s.interval != DefaultInterval {
		t.Errorf("Expected default interval, got %v", s.interval)
	}
	if s.workerCount != 1 {
		t.Errorf("Expected single worker, got %d", s.workerCount)
	}
	if s.taskTimeout != 0 {
		t.Errorf("Expected no task timeout, got %v", s.taskTimeout)
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	runner := &MockRunner{done: make(chan struct{}, 4)}
	pruner := &MockPruner{}
	s := NewScheduler(runner, pruner, SchedulerConfig{
		Interval:   time.Hour,
		RunOnStart: true,
		Retention:  24 * time.Hour,
	})

	s.Start()
	waitFor(t, runner.done, 1)

	deadline := time.Now().Add(2 * time.Second)
	for pruner.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	s.Stop()

	if runner.Runs() != 1 {
		t.Errorf("Expected 1 startup run, got %d", runner.Runs())
	}
	if pruner.Calls() != 1 {
		t.Fatalf("Expected 1 prune, got %d", pruner.Calls())
	}
	if age := time.Since(pruner.cutoffs[0]); age < 24*time.Hour || age > 25*time.Hour {
		t.Errorf("Expected cutoff about 24h ago, got %v", age)
	}
}

func TestScheduler_Interval(t *testing.T) {
	runner := &MockRunner{done: make(chan struct{}, 10)}
	s := NewScheduler(runner, nil, SchedulerConfig{Interval: 20 * time.Millisecond})

	s.Start()
	waitFor(t, runner.done, 2)
	s.Stop()

	if runner.Runs() < 2 {
		t.Errorf("Expected at least 2 scheduled runs, got %d", runner.Runs())
	}
}

func TestScheduler_TriggerRun(t *testing.T) {
	runner := &MockRunner{done: make(chan struct{}, 1)}
	s := NewScheduler(runner, nil, SchedulerConfig{Interval: time.Hour})

	s.Start()
	defer s.Stop()

	id, err := s.TriggerRun(TriggerAPI)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if id == "" {
		t.Error("Expected task ID")
	}

	waitFor(t, runner.done, 1)
}

func TestScheduler_QueueFull(t *testing.T) {
	s := NewScheduler(&MockRunner{}, nil, SchedulerConfig{})
	defer s.cancel()

	for i := 0; i < defaultQueueSize; i++ {
		if _, err := s.TriggerRun(TriggerAPI); err != nil {
			t.Fatalf("Unexpected error filling queue: %v", err)
		}
	}

	_, err := s.TriggerRun(TriggerAPI)
	if err == nil || err.Error() != "task queue is full" {
		t.Errorf("Expected queue full error, got %v", err)
	}
}

func TestScheduler_EnqueueAfterStop(t *testing.T) {
	s := NewScheduler(&MockRunner{}, nil, SchedulerConfig{})
	s.cancel()

	for i := 0; i < defaultQueueSize; i++ {
		s.taskQueue <- NewRunDigestTask(TriggerAPI, &MockRunner{})
	}

	if err := s.EnqueueTask(NewRunDigestTask(TriggerAPI, &MockRunner{})); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRunDigestTask_Execute(t *testing.T) {
	task := NewRunDigestTask(TriggerSchedule, &MockRunner{err: pipeline.ErrNoArtifacts})
	task.Start()

	err := task.Execute(context.Background())
	if !errors.Is(err, pipeline.ErrNoArtifacts) {
		t.Errorf("Expected wrapped ErrNoArtifacts, got %v", err)
	}
	if task.GetType() != TaskTypeRunDigest || task.GetTrigger() != TriggerSchedule {
		t.Errorf("Unexpected task metadata: %s/%s", task.GetType(), task.GetTrigger())
	}
	if task.GetDuration() <= 0 {
		t.Error("Expected positive duration after Start")
	}
}

func TestRunDigestTask_CancelledContext(t *testing.T) {
	runner := &MockRunner{}
	task := NewRunDigestTask(TriggerAPI, runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := task.Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if runner.Runs() != 0 {
		t.Error("Expected runner not to be called")
	}
}

func TestNewTask_UniqueIDs(t *testing.T) {
	a := NewTask(TaskTypeRunDigest, TriggerAPI)
	b := NewTask(TaskTypeRunDigest, TriggerAPI)

	if a.ID == b.ID {
		t.Error("Expected unique task IDs")
	}
	if a.GetDuration() != 0 {
		t.Error("Expected zero duration before Start")
	}
}
