package api

import (
	"time"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/record"
	"github.com/lysyi3m/news-comb/app/report"
	"github.com/lysyi3m/news-comb/app/tasks"
)

type RunRepository interface {
	GetRun(id string) (*database.Run, error)
	GetLatestRun() (*database.Run, error)
	ListRuns(limit int) ([]database.Run, error)
	GetRunCount() (int, error)
}

var _ RunRepository = (*database.RunRepository)(nil)

type GeneratorInterface interface {
	Run(in report.Input) (string, error)
}

var _ GeneratorInterface = (*report.Generator)(nil)

type Handler struct {
	runRepo   RunRepository
	generator GeneratorInterface
	scheduler tasks.TaskSchedulerInterface
	sources   []string
	version   string
}

type runSummary struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Duration       string    `json:"duration"`
	CollectedCount int       `json:"collected_count"`
	RecordCount    int       `json:"record_count"`
	Sources        []string  `json:"sources"`
	ReportPath     string    `json:"report_path,omitempty"`
	DryRun         bool      `json:"dry_run"`
}

type runDetails struct {
	runSummary
	Digest  string          `json:"digest"`
	Records []record.Record `json:"records"`
}

func newRunSummary(run database.Run) runSummary {
	sources := run.Sources
	if sources == nil {
		sources = []string{}
	}
	return runSummary{
		ID:             run.ID,
		StartedAt:      run.StartedAt.UTC(),
		FinishedAt:     run.FinishedAt.UTC(),
		Duration:       run.Duration().String(),
		CollectedCount: run.CollectedCount,
		RecordCount:    run.RecordCount,
		Sources:        sources,
		ReportPath:     run.ReportPath,
		DryRun:         run.DryRun,
	}
}

func newRunDetails(run database.Run) runDetails {
	records := run.Records
	if records == nil {
		records = []record.Record{}
	}
	return runDetails{
		runSummary: newRunSummary(run),
		Digest:     run.Digest,
		Records:    records,
	}
}
