package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-comb/app/report"
	"github.com/lysyi3m/news-comb/app/tasks"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

func NewHandler(runRepo RunRepository, generator GeneratorInterface,
	scheduler tasks.TaskSchedulerInterface, sources []string, version string) *Handler {
	return &Handler{
		runRepo:   runRepo,
		generator: generator,
		scheduler: scheduler,
		sources:   sources,
		version:   version,
	}
}

func (h *Handler) GetDigest(c *gin.Context) {
	run, err := h.runRepo.GetLatestRun()
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_run", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if run == nil {
		c.Status(http.StatusNotFound)
		return
	}

	rss, err := h.generator.Run(report.NewInput(run.Records, run.Digest, run.FinishedAt))
	if err != nil {
		slog.Error("RSS generation error", "run_id", run.ID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(run.Records)))
	c.Header("X-Run-ID", run.ID)
	c.Header("X-Last-Updated", run.FinishedAt.UTC().Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"sources":   h.sources,
		"scheduler": h.scheduler != nil,
	}

	if count, err := h.runRepo.GetRunCount(); err == nil {
		health["runs"] = count
	} else {
		slog.Warn("Failed to count runs", "error", err)
	}

	runs, err := h.runRepo.ListRuns(1)
	if err == nil && len(runs) > 0 {
		health["last_run_at"] = runs[0].StartedAt.UTC().Format(time.RFC3339)
		health["last_run_id"] = runs[0].ID
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := defaultRunLimit
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(parsed, maxRunLimit)
	}

	runs, err := h.runRepo.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	summaries := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		summaries = append(summaries, newRunSummary(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  summaries,
		"count": len(summaries),
	})
}

func (h *Handler) GetRun(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}

	c.JSON(http.StatusOK, newRunDetails(*run))
}

func (h *Handler) TriggerRun(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is not running"})
		return
	}

	taskID, err := h.scheduler.TriggerRun(tasks.TriggerAPI)
	if err != nil {
		slog.Warn("Failed to enqueue digest run", "error", err)
		status := http.StatusTooManyRequests
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Digest run queued via API", "task_id", taskID)

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"status":  "queued",
	})
}
