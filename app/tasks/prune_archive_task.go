package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Pruner interface {
	DeleteRunsBefore(cutoff time.Time) (int64, error)
}

// PruneArchiveTask deletes archived runs older than the retention window.
type PruneArchiveTask struct {
	Task
	pruner    Pruner
	retention time.Duration
}

func NewPruneArchiveTask(trigger Trigger, pruner Pruner, retention time.Duration) *PruneArchiveTask {
	return &PruneArchiveTask{
		Task:      NewTask(TaskTypePruneArchive, trigger),
		pruner:    pruner,
		retention: retention,
	}
}

func (t *PruneArchiveTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cutoff := time.Now().UTC().Add(-t.retention)
	deleted, err := t.pruner.DeleteRunsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune archive: %w", err)
	}

	if deleted > 0 {
		slog.Info("Task completed", "type", string(t.Type), "deleted_runs", deleted, "cutoff", cutoff)
	} else {
		slog.Debug("Task completed", "type", string(t.Type), "deleted_runs", deleted)
	}

	return nil
}
