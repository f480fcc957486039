package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	SettingsFile = "settings.yaml"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatRSS      = "rss"
)

type Settings struct {
	Products   []record.Product   `yaml:"products"`
	Collection CollectionSettings `yaml:"collection"`
	Summarizer SummarizerSettings `yaml:"summarizer"`
	Output     OutputSettings     `yaml:"output"`
	Archive    ArchiveSettings    `yaml:"archive"`
}

type CollectionSettings struct {
	LookbackDays      int           `yaml:"lookback_days"`
	MaxItemsPerSource int           `yaml:"max_items_per_source"`
	MaxItemsPerReport int           `yaml:"max_items_per_report"`
	Timeout           int           `yaml:"timeout"`             // seconds
	RequestInterval   int           `yaml:"request_interval_ms"` // per host
	MinEngagement     MinEngagement `yaml:"min_engagement"`
}

type MinEngagement struct {
	Reddit  int `yaml:"reddit"`
	Twitter int `yaml:"twitter"`
	Weibo   int `yaml:"weibo"`
	Zhihu   int `yaml:"zhihu"`
}

type SummarizerSettings struct {
	Provider    string  `yaml:"provider"`
	ClaudeModel string  `yaml:"claude_model"`
	OpenAIModel string  `yaml:"openai_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Timeout     int     `yaml:"timeout"` // seconds
}

type OutputSettings struct {
	Formats   []string `yaml:"formats"`
	FeedTitle string   `yaml:"feed_title"`
}

type ArchiveSettings struct {
	RetentionDays int `yaml:"retention_days"`
}

// DefaultProducts is used when settings.yaml lists no products.
var DefaultProducts = []record.Product{
	{Name: "Claude", Keywords: []string{"Claude", "Anthropic", "Claude Code"}},
	{Name: "Cursor", Keywords: []string{"Cursor", "cursor.sh", "Cursor IDE"}},
	{Name: "Copilot", Keywords: []string{"GitHub Copilot", "Copilot"}},
	{Name: "Windsurf", Keywords: []string{"Windsurf", "Codeium"}},
	{Name: "Cline", Keywords: []string{"Cline"}},
	{Name: "Aider", Keywords: []string{"Aider"}},
}

var validFormats = []string{FormatMarkdown, FormatJSON, FormatRSS}

// LoadSettings reads settings.yaml from dir. A missing file yields the
// built-in defaults.
func LoadSettings(dir string) (*Settings, error) {
	path := filepath.Join(dir, SettingsFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Settings file not found, using defaults", "path", path)
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	settings, err := parseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	slog.Debug("Settings loaded", "path", path, "products", len(settings.Products), "formats", settings.Output.Formats)

	return settings, nil
}

func parseSettings(data []byte) (*Settings, error) {
	// Fields where zero is a meaningful value get their defaults before
	// decoding so an explicit 0 in the file is kept.
	settings := Settings{
		Collection: CollectionSettings{
			MinEngagement: MinEngagement{Reddit: 10, Twitter: 20, Weibo: 50, Zhihu: 10},
		},
		Summarizer: SummarizerSettings{Temperature: 0.3},
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(settings.Products) == 0 {
		settings.Products = slices.Clone(DefaultProducts)
	}

	c := &settings.Collection
	if c.LookbackDays == 0 {
		c.LookbackDays = 1
	}
	if c.MaxItemsPerSource == 0 {
		c.MaxItemsPerSource = 30
	}
	if c.MaxItemsPerReport == 0 {
		c.MaxItemsPerReport = 50
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.RequestInterval == 0 {
		c.RequestInterval = 500
	}

	s := &settings.Summarizer
	if s.Provider == "" {
		s.Provider = "claude"
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = 4096
	}
	if s.Timeout == 0 {
		s.Timeout = 120
	}

	if len(settings.Output.Formats) == 0 {
		settings.Output.Formats = []string{FormatMarkdown, FormatJSON}
	}
	if !slices.Contains(settings.Output.Formats, FormatMarkdown) {
		settings.Output.Formats = append([]string{FormatMarkdown}, settings.Output.Formats...)
	}

	return &settings, nil
}

func validateSettings(settings *Settings) error {
	if settings == nil {
		return fmt.Errorf("settings is nil")
	}

	for i, product := range settings.Products {
		if product.Name == "" {
			return fmt.Errorf("product at index %d must have a name", i)
		}
		if len(product.Keywords) == 0 {
			return fmt.Errorf("product %s must have at least one keyword", product.Name)
		}
	}

	nonNegativeFields := map[string]int{
		"lookback days":          settings.Collection.LookbackDays,
		"max items per source":   settings.Collection.MaxItemsPerSource,
		"max items per report":   settings.Collection.MaxItemsPerReport,
		"timeout":                settings.Collection.Timeout,
		"request interval":       settings.Collection.RequestInterval,
		"reddit min engagement":  settings.Collection.MinEngagement.Reddit,
		"twitter min engagement": settings.Collection.MinEngagement.Twitter,
		"weibo min engagement":   settings.Collection.MinEngagement.Weibo,
		"zhihu min engagement":   settings.Collection.MinEngagement.Zhihu,
		"summarizer max tokens":  settings.Summarizer.MaxTokens,
		"summarizer timeout":     settings.Summarizer.Timeout,
		"retention days":         settings.Archive.RetentionDays,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if settings.Summarizer.Temperature < 0 || settings.Summarizer.Temperature > 2 {
		return fmt.Errorf("summarizer temperature must be between 0 and 2")
	}

	for i, format := range settings.Output.Formats {
		if !slices.Contains(validFormats, format) {
			return fmt.Errorf("invalid output format at index %d: %s", i, format)
		}
	}

	return nil
}
