package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	SourceHackerNews = "hackernews"
	SourceReddit     = "reddit"
	SourceTwitter    = "twitter"
	SourceWeiboZhihu = "weibo_zhihu"
	SourceTechNews   = "tech_news"
)

// AllSources lists every collector in the order their results are merged.
var AllSources = []string{
	SourceHackerNews,
	SourceReddit,
	SourceTwitter,
	SourceWeiboZhihu,
	SourceTechNews,
}

var logLevels = []string{"debug", "info", "warn", "error"}

type rawCfg struct {
	// Run options
	Sources  string  `short:"s" long:"sources" env:"SOURCES" description:"Comma separated list of sources to collect (default: all)"`
	Days     int     `short:"d" long:"days" env:"LOOKBACK_DAYS" default:"1" description:"Lookback window in days"`
	DryRun   bool    `long:"dry-run" description:"Skip LLM summaries and digest"`
	MaxItems int     `short:"n" long:"max-items" env:"MAX_ITEMS" description:"Maximum records per report (default: from settings)"`
	LogLevel string  `short:"l" long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	Similar  float64 `long:"similarity" env:"SIMILARITY_THRESHOLD" default:"0.75" description:"Title similarity threshold for fuzzy deduplication"`

	// Paths
	ConfigDir  string `long:"config-dir" env:"CONFIG_DIR" default:"./config" description:"Directory containing settings.yaml and kol_list.yaml"`
	ReportsDir string `long:"reports-dir" env:"REPORTS_DIR" default:"./reports" description:"Directory for generated reports"`
	ArchiveDB  string `long:"archive-db" env:"ARCHIVE_DB" description:"SQLite file for the run archive (optional)"`

	// Serve mode
	Serve        bool   `long:"serve" env:"SERVE" description:"Run the scheduler and HTTP API instead of a single run"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	Interval     int    `long:"interval" env:"RUN_INTERVAL" default:"1440" description:"Scheduled run interval in minutes"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL used in the RSS channel"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for /runs endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"news-comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`

	// Credentials
	AnthropicAPIKey    string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY" description:"Anthropic API key"`
	OpenAIAPIKey       string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	LLMProvider        string `long:"llm-provider" env:"LLM_PROVIDER" description:"LLM provider (claude or openai), overrides settings"`
	RedditClientID     string `long:"reddit-client-id" env:"REDDIT_CLIENT_ID" description:"Reddit OAuth client ID"`
	RedditClientSecret string `long:"reddit-client-secret" env:"REDDIT_CLIENT_SECRET" description:"Reddit OAuth client secret"`
	RedditUserAgent    string `long:"reddit-user-agent" env:"REDDIT_USER_AGENT" description:"User agent for the Reddit API"`
	TwitterBearerToken string `long:"twitter-bearer-token" env:"TWITTER_BEARER_TOKEN" description:"Twitter API v2 bearer token"`
	WeiboCookie        string `long:"weibo-cookie" env:"WEIBO_COOKIE" description:"Weibo session cookie"`
	ZhihuCookie        string `long:"zhihu-cookie" env:"ZHIHU_COOKIE" description:"Zhihu session cookie"`
}

// Load parses args and the environment. It returns nil, nil when help was
// requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Sources:    ParseSources(raw.Sources),
		Days:       raw.Days,
		DryRun:     raw.DryRun,
		MaxItems:   raw.MaxItems,
		LogLevel:   strings.ToLower(raw.LogLevel),
		Similarity: raw.Similar,

		ConfigDir:  raw.ConfigDir,
		ReportsDir: raw.ReportsDir,
		ArchiveDB:  raw.ArchiveDB,

		Serve:        raw.Serve,
		Port:         raw.Port,
		Interval:     time.Duration(raw.Interval) * time.Minute,
		BaseUrl:      raw.BaseUrl,
		APIAccessKey: raw.APIAccessKey,

		UserAgent: raw.UserAgent,
		Timezone:  raw.Timezone,
		Version:   GetVersion(),

		Secrets: Secrets{
			AnthropicAPIKey:    raw.AnthropicAPIKey,
			OpenAIAPIKey:       raw.OpenAIAPIKey,
			LLMProvider:        raw.LLMProvider,
			RedditClientID:     raw.RedditClientID,
			RedditClientSecret: raw.RedditClientSecret,
			RedditUserAgent:    raw.RedditUserAgent,
			TwitterBearerToken: raw.TwitterBearerToken,
			WeiboCookie:        raw.WeiboCookie,
			ZhihuCookie:        raw.ZhihuCookie,
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// ParseSources splits a comma separated source list. An empty value selects
// every source. Unknown names are kept so the caller can report them.
func ParseSources(value string) []string {
	var sources []string
	for _, part := range strings.Split(value, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || slices.Contains(sources, name) {
			continue
		}
		sources = append(sources, name)
	}
	if len(sources) == 0 {
		return slices.Clone(AllSources)
	}
	return sources
}

func IsKnownSource(name string) bool {
	return slices.Contains(AllSources, name)
}

func (c *Cfg) validate() error {
	if c.Days < 0 {
		return fmt.Errorf("days must be non-negative")
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}
	if c.Similarity <= 0 || c.Similarity > 1 {
		return fmt.Errorf("similarity must be in (0, 1], got %v", c.Similarity)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.Serve && c.Interval <= 0 {
		return fmt.Errorf("interval must be positive in serve mode")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
