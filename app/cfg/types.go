package cfg

import "time"

type Cfg struct {
	// Run options
	Sources    []string
	Days       int
	DryRun     bool
	MaxItems   int
	LogLevel   string
	Similarity float64

	// Paths
	ConfigDir  string
	ReportsDir string
	ArchiveDB  string

	// Serve mode
	Serve        bool
	Port         string
	Interval     time.Duration
	BaseUrl      string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Version   string

	Secrets Secrets
}

// Secrets carries credentials read from the environment. Collectors and the
// summarizer degrade when a value is empty.
type Secrets struct {
	AnthropicAPIKey    string
	OpenAIAPIKey       string
	LLMProvider        string
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	TwitterBearerToken string
	WeiboCookie        string
	ZhihuCookie        string
}
