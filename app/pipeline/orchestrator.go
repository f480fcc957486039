package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/news-comb/app/collector"
	"github.com/lysyi3m/news-comb/app/record"
)

// Orchestrator runs every collector concurrently and merges their results in
// configuration order. A failing collector contributes nothing; the others
// are never cancelled.
type Orchestrator struct {
	Collectors []collector.Collector
	Logger     *slog.Logger
}

func NewOrchestrator(collectors []collector.Collector, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{Collectors: collectors, Logger: logger}
}

func (o *Orchestrator) Run(ctx context.Context) []record.Record {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	startedAt := time.Now()
	results := make([][]record.Record, len(o.Collectors))

	var g errgroup.Group
	for i, c := range o.Collectors {
		g.Go(func() error {
			results[i] = collector.SafeCollect(ctx, c, logger)
			return nil
		})
	}
	g.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}

	merged := make([]record.Record, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	logger.Info("Collection completed",
		"collectors", len(o.Collectors),
		"items", len(merged),
		"duration", time.Since(startedAt))

	return merged
}
