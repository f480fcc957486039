package collector

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

// Collector produces records from one source. Collect never fails: any
// sub-operation error is logged and contributes nothing to the result.
type Collector interface {
	SourceName() string
	Collect(ctx context.Context) []record.Record
}

// SafeCollect runs c and turns a panic into an empty result.
func SafeCollect(ctx context.Context, c Collector, logger *slog.Logger) (records []record.Record) {
	if logger == nil {
		logger = slog.Default()
	}

	name := c.SourceName()
	startedAt := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Collector failed",
				"source", name,
				"panic", r,
				"stack", string(debug.Stack()))
			records = []record.Record{}
		}
	}()

	logger.Info("Collector started", "source", name)

	records = c.Collect(ctx)
	if records == nil {
		records = []record.Record{}
	}

	logger.Info("Collector completed",
		"source", name,
		"items", len(records),
		"duration", time.Since(startedAt))

	return records
}
