package cfg

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeConfigFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, SettingsFile, `
products:
  - name: Claude
    keywords: ["Claude", "Anthropic"]
  - name: Cursor
    keywords: ["Cursor"]

collection:
  lookback_days: 2
  max_items_per_source: 15
  min_engagement:
    reddit: 5

summarizer:
  provider: openai
  openai_model: gpt-4o-mini

output:
  formats: [json, rss]

archive:
  retention_days: 30
`)

	settings, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(settings.Products) != 2 || settings.Products[1].Name != "Cursor" {
		t.Errorf("Expected 2 products, got %v", settings.Products)
	}
	if settings.Collection.LookbackDays != 2 {
		t.Errorf("Expected lookback 2, got %d", settings.Collection.LookbackDays)
	}
	if settings.Collection.MaxItemsPerSource != 15 {
		t.Errorf("Expected 15 items per source, got %d", settings.Collection.MaxItemsPerSource)
	}
	if settings.Collection.MaxItemsPerReport != 50 {
		t.Errorf("Expected default 50 items per report, got %d", settings.Collection.MaxItemsPerReport)
	}
	if settings.Collection.MinEngagement.Reddit != 5 {
		t.Errorf("Expected reddit min engagement 5, got %d", settings.Collection.MinEngagement.Reddit)
	}
	if settings.Collection.MinEngagement.Twitter != 20 {
		t.Errorf("Expected default twitter min engagement 20, got %d", settings.Collection.MinEngagement.Twitter)
	}
	if settings.Summarizer.Provider != "openai" || settings.Summarizer.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("Unexpected summarizer settings: %+v", settings.Summarizer)
	}
	if settings.Summarizer.MaxTokens != 4096 || settings.Summarizer.Temperature != 0.3 {
		t.Errorf("Expected summarizer defaults, got %+v", settings.Summarizer)
	}
	if !slices.Equal(settings.Output.Formats, []string{FormatMarkdown, FormatJSON, FormatRSS}) {
		t.Errorf("Expected markdown to be prepended, got %v", settings.Output.Formats)
	}
	if settings.Archive.RetentionDays != 30 {
		t.Errorf("Expected retention 30, got %d", settings.Archive.RetentionDays)
	}
}

func TestLoadSettingsKeepsExplicitZero(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, SettingsFile, `
collection:
  min_engagement:
    reddit: 0
    twitter: 0

summarizer:
  temperature: 0
`)

	settings, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	thresholds := settings.Collection.MinEngagement
	if thresholds.Reddit != 0 || thresholds.Twitter != 0 {
		t.Errorf("Expected explicit zero reddit and twitter thresholds, got %+v", thresholds)
	}
	if thresholds.Weibo != 50 || thresholds.Zhihu != 10 {
		t.Errorf("Expected default weibo and zhihu thresholds, got %+v", thresholds)
	}
	if settings.Summarizer.Temperature != 0 {
		t.Errorf("Expected temperature 0, got %v", settings.Summarizer.Temperature)
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := LoadSettings(t.TempDir())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(settings.Products) != len(DefaultProducts) {
		t.Errorf("Expected default products, got %d", len(settings.Products))
	}
	if settings.Collection.LookbackDays != 1 || settings.Collection.MaxItemsPerSource != 30 {
		t.Errorf("Expected collection defaults, got %+v", settings.Collection)
	}
	if !slices.Equal(settings.Output.Formats, []string{FormatMarkdown, FormatJSON}) {
		t.Errorf("Expected default formats, got %v", settings.Output.Formats)
	}
}

func TestLoadSettingsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"malformed yaml", "products: [", "failed to parse YAML"},
		{"product without keywords", "products:\n  - name: Claude\n", "at least one keyword"},
		{"product without name", "products:\n  - keywords: [x]\n", "must have a name"},
		{"negative lookback", "collection:\n  lookback_days: -1\n", "lookback days must be non-negative"},
		{"unknown format", "output:\n  formats: [pdf]\n", "invalid output format"},
		{"temperature too high", "summarizer:\n  temperature: 3\n", "temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfigFile(t, dir, SettingsFile, tt.content)

			_, err := LoadSettings(dir)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}
