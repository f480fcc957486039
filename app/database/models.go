package database

import (
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

// Run is one archived pipeline run
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	CollectedCount int // records returned by collectors before deduplication
	RecordCount    int
	Sources        []string
	Digest         string
	ReportPath     string
	DryRun         bool
	Records        []record.Record // empty when loaded by ListRuns
}

func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
