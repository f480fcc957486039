package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/news-comb/app/collector"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/dedup"
	"github.com/lysyi3m/news-comb/app/record"
	"github.com/lysyi3m/news-comb/app/report"
	"github.com/lysyi3m/news-comb/app/summarizer"
)

const DefaultMaxItems = 50

var (
	ErrNoCollectors = errors.New("no collectors could be constructed")
	ErrNoArtifacts  = errors.New("no report artifact was written")
)

// Archive stores finished runs. It is never read back during a run.
type Archive interface {
	SaveRun(run database.Run) error
}

type Config struct {
	Collectors   []collector.Collector
	Deduplicator *dedup.Deduplicator
	Summarizer   summarizer.Summarizer // nil or DryRun skips summaries
	Writers      []report.Writer
	Archive      Archive // optional
	MaxItems     int
	DryRun       bool
	Logger       *slog.Logger
}

// Pipeline runs collect, deduplicate, rank, summarize, render and archive.
type Pipeline struct {
	orchestrator *Orchestrator
	dedup        *dedup.Deduplicator
	summarizer   summarizer.Summarizer
	writers      []report.Writer
	archive      Archive
	maxItems     int
	dryRun       bool
	logger       *slog.Logger
	now          func() time.Time
}

type Result struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	CollectedCount int
	DedupedCount   int
	Records        []record.Record
	Stats          record.Stats
	Digest         string
	Artifacts      map[string]string // format -> path
}

func New(cfg Config) (*Pipeline, error) {
	if len(cfg.Collectors) == 0 {
		return nil, ErrNoCollectors
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	deduplicator := cfg.Deduplicator
	if deduplicator == nil {
		deduplicator = dedup.New(dedup.DefaultThreshold)
	}

	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	return &Pipeline{
		orchestrator: NewOrchestrator(cfg.Collectors, logger),
		dedup:        deduplicator,
		summarizer:   cfg.Summarizer,
		writers:      cfg.Writers,
		archive:      cfg.Archive,
		maxItems:     maxItems,
		dryRun:       cfg.DryRun,
		logger:       logger,
		now:          time.Now,
	}, nil
}

// Sources returns the collector names in merge order.
func (p *Pipeline) Sources() []string {
	names := make([]string, len(p.orchestrator.Collectors))
	for i, c := range p.orchestrator.Collectors {
		names[i] = c.SourceName()
	}
	return names
}

// Run executes one digest run. It fails only when no artifact could be
// written; zero collected records still produce a report.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
		Artifacts: make(map[string]string),
	}

	p.logger.Info("Run started", "run_id", result.RunID, "sources", p.Sources(), "dry_run", p.dryRun)

	collected := p.orchestrator.Run(ctx)
	result.CollectedCount = len(collected)

	deduped := p.dedup.Run(collected)
	result.DedupedCount = len(deduped)

	ranked := record.SortByEngagement(deduped)
	if len(ranked) > p.maxItems {
		ranked = ranked[:p.maxItems]
	}

	if p.dryRun || p.summarizer == nil {
		p.logger.Info("Skipping LLM summaries", "dry_run", p.dryRun)
	} else {
		result.Digest = p.summarize(ctx, ranked)
	}

	result.Records = ranked
	result.Stats = record.Summarize(ranked)

	input := report.NewInput(ranked, result.Digest, p.now())
	for _, w := range p.writers {
		path, err := w.Write(input)
		if err != nil {
			p.logger.Error("Failed to write report", "format", w.Format(), "error", err)
			continue
		}
		result.Artifacts[w.Format()] = path
	}

	result.FinishedAt = p.now().UTC()

	if len(result.Artifacts) == 0 {
		return result, ErrNoArtifacts
	}

	p.saveRun(result)
	p.logStats(result)

	return result, nil
}

func (p *Pipeline) summarize(ctx context.Context, records []record.Record) string {
	startedAt := time.Now()

	refs := make([]*record.Record, len(records))
	for i := range records {
		refs[i] = &records[i]
	}
	p.summarizer.SummarizeRecords(ctx, refs)

	digest := p.summarizer.DailyDigest(ctx, records)

	p.logger.Info("Summaries generated", "items", len(records), "duration", time.Since(startedAt))

	return digest
}

func (p *Pipeline) saveRun(result *Result) {
	if p.archive == nil {
		return
	}

	run := database.Run{
		ID:             result.RunID,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		CollectedCount: result.CollectedCount,
		RecordCount:    len(result.Records),
		Sources:        p.Sources(),
		Digest:         result.Digest,
		ReportPath:     result.Artifacts["markdown"],
		DryRun:         p.dryRun,
		Records:        result.Records,
	}

	if err := p.archive.SaveRun(run); err != nil {
		p.logger.Error("Failed to archive run", "run_id", result.RunID, "error", err)
		return
	}

	p.logger.Debug("Run archived", "run_id", result.RunID, "records", len(result.Records))
}

func (p *Pipeline) logStats(result *Result) {
	stats := result.Stats

	p.logger.Info("Run completed",
		"run_id", result.RunID,
		"collected", result.CollectedCount,
		"deduplicated", result.DedupedCount,
		"reported", stats.Total,
		"kol", stats.KOLCount,
		"artifacts", len(result.Artifacts),
		"duration", result.FinishedAt.Sub(result.StartedAt))

	sources := make([]string, 0, len(stats.BySource))
	for source := range stats.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		p.logger.Info("Source summary", "source", source, "items", stats.BySource[source])
	}

	for _, product := range stats.Products {
		p.logger.Info("Product summary",
			"product", product.Name,
			"items", product.Count,
			"avg_engagement", fmt.Sprintf("%.0f", product.AverageEngagement))
	}
}
