package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lysyi3m/news-comb/app/api"
	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/collector"
	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/dedup"
	"github.com/lysyi3m/news-comb/app/logging"
	"github.com/lysyi3m/news-comb/app/pipeline"
	"github.com/lysyi3m/news-comb/app/record"
	"github.com/lysyi3m/news-comb/app/report"
	"github.com/lysyi3m/news-comb/app/summarizer"
	"github.com/lysyi3m/news-comb/app/tasks"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	appCfg, err := cfg.Load(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if appCfg == nil {
		// Help was shown
		return 0
	}

	logger := logging.New(appCfg.LogLevel)

	settings, err := cfg.LoadSettings(appCfg.ConfigDir)
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		return 1
	}

	kols, err := cfg.LoadKOLList(appCfg.ConfigDir)
	if err != nil {
		slog.Error("Failed to load KOL list", "error", err)
		return 1
	}

	slog.Info("Starting news-comb",
		"version", appCfg.Version,
		"sources", strings.Join(appCfg.Sources, ","),
		"days", appCfg.Days,
		"dry_run", appCfg.DryRun,
		"serve", appCfg.Serve)

	var archive *database.RunRepository
	if appCfg.ArchiveDB != "" {
		db, err := database.Open(appCfg.ArchiveDB)
		if err != nil {
			// The archive is optional; reports are still written without it.
			slog.Error("Failed to open archive", "path", appCfg.ArchiveDB, "error", err)
		} else {
			defer db.Close()
			archive = database.NewRunRepository(db)
		}
	}

	p, generator, err := buildPipeline(appCfg, settings, kols, archive, logger)
	if err != nil {
		slog.Error("Failed to build pipeline", "error", err)
		return 1
	}

	if appCfg.Serve {
		return serve(appCfg, settings, p, generator, archive)
	}

	result, err := p.Run(context.Background())
	if err != nil {
		slog.Error("Run failed", "error", err)
		return 1
	}

	for format, path := range result.Artifacts {
		slog.Info("Artifact written", "format", format, "path", path)
	}
	return 0
}

func buildPipeline(appCfg *cfg.Cfg, settings *cfg.Settings, kols *cfg.KOLList,
	archive *database.RunRepository, logger *slog.Logger) (*pipeline.Pipeline, *report.Generator, error) {
	fetcher := collector.NewFetcher(nil, appCfg.UserAgent,
		time.Duration(settings.Collection.Timeout)*time.Second,
		time.Duration(settings.Collection.RequestInterval)*time.Millisecond)

	collectors := buildCollectors(appCfg, settings, kols, fetcher)

	generator := report.NewGenerator(report.GeneratorConfig{
		Title:    settings.Output.FeedTitle,
		Link:     appCfg.BaseUrl,
		SelfLink: feedSelfLink(appCfg.BaseUrl),
		Version:  appCfg.Version,
	})

	maxItems := appCfg.MaxItems
	if maxItems == 0 {
		maxItems = settings.Collection.MaxItemsPerReport
	}

	pipelineCfg := pipeline.Config{
		Collectors:   collectors,
		Deduplicator: dedup.New(appCfg.Similarity),
		Writers:      buildWriters(appCfg.ReportsDir, settings.Output.Formats, generator),
		MaxItems:     maxItems,
		DryRun:       appCfg.DryRun,
		Logger:       logging.Component(logger, "pipeline"),
	}
	if !appCfg.DryRun {
		pipelineCfg.Summarizer = buildSummarizer(appCfg, settings, logger)
	}
	if archive != nil {
		pipelineCfg.Archive = archive
	}

	p, err := pipeline.New(pipelineCfg)
	if err != nil {
		return nil, nil, err
	}
	return p, generator, nil
}

func buildSummarizer(appCfg *cfg.Cfg, settings *cfg.Settings, logger *slog.Logger) summarizer.Summarizer {
	s := settings.Summarizer
	provider := s.Provider
	if appCfg.Secrets.LLMProvider != "" {
		provider = appCfg.Secrets.LLMProvider
	}

	llm := summarizer.New(summarizer.Config{
		Provider:        provider,
		AnthropicAPIKey: appCfg.Secrets.AnthropicAPIKey,
		OpenAIAPIKey:    appCfg.Secrets.OpenAIAPIKey,
		ClaudeModel:     s.ClaudeModel,
		OpenAIModel:     s.OpenAIModel,
		MaxTokens:       s.MaxTokens,
		Temperature:     s.Temperature,
		Timeout:         time.Duration(s.Timeout) * time.Second,
	}, logging.Component(logger, "summarizer"))

	if !llm.Configured() {
		slog.Warn("No LLM API key configured, summaries will use fallback text")
	}
	return llm
}

func buildWriters(dir string, formats []string, generator *report.Generator) []report.Writer {
	var writers []report.Writer
	for _, format := range formats {
		switch format {
		case cfg.FormatMarkdown:
			writers = append(writers, report.NewMarkdownWriter(dir))
		case cfg.FormatJSON:
			writers = append(writers, report.NewJSONWriter(dir))
		case cfg.FormatRSS:
			writers = append(writers, report.NewRSSWriter(dir, generator))
		}
	}
	return writers
}

func feedSelfLink(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/digest.xml"
}

func serve(appCfg *cfg.Cfg, settings *cfg.Settings, p *pipeline.Pipeline,
	generator *report.Generator, archive *database.RunRepository) int {
	if archive == nil {
		slog.Error("Serve mode requires an archive", "flag", "--archive-db")
		return 1
	}

	schedulerCfg := tasks.SchedulerConfig{
		Interval:   appCfg.Interval,
		RunOnStart: true,
		Retention:  time.Duration(settings.Archive.RetentionDays) * 24 * time.Hour,
	}
	scheduler := tasks.NewScheduler(p, archive, schedulerCfg)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(archive, generator, scheduler, p.Sources(), appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "port", appCfg.Port, "interval", appCfg.Interval, "api_auth", appCfg.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
		exitCode = 1
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return exitCode
}

func newPolicy(matcher *record.Matcher, appCfg *cfg.Cfg, settings *cfg.Settings) collector.Policy {
	days := appCfg.Days
	if days == 0 {
		days = settings.Collection.LookbackDays
	}
	return collector.Policy{
		Matcher:      matcher,
		LookbackDays: days,
		MaxItems:     settings.Collection.MaxItemsPerSource,
	}
}
