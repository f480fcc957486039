package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/news-comb/app/pipeline"
)

type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// RunDigestTask executes one full pipeline run. Failed runs are not retried;
// the next scheduled run starts from scratch.
type RunDigestTask struct {
	Task
	runner Runner
}

func NewRunDigestTask(trigger Trigger, runner Runner) *RunDigestTask {
	return &RunDigestTask{
		Task:   NewTask(TaskTypeRunDigest, trigger),
		runner: runner,
	}
}

func (t *RunDigestTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to run digest: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"trigger", string(t.Trigger),
		"run_id", result.RunID,
		"records", len(result.Records),
		"duration", t.GetDuration())

	return nil
}
