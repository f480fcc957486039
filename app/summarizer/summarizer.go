package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"

	DefaultClaudeModel = "claude-sonnet-4-20250514"
	DefaultOpenAIModel = "gpt-4o"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.3
	DefaultTimeout     = 120 * time.Second

	BatchSize = 10

	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	fallbackSummaryLength = 50
)

const (
	NoDataDigest   = "今日暂无相关信息采集到。"
	FallbackDigest = "> ⚠️ LLM API 未配置或调用失败，以下为原始数据汇总。\n" +
		"> 请配置 ANTHROPIC_API_KEY 或 OPENAI_API_KEY 以获得智能摘要。\n\n" +
		"请查看下方各数据源的详细条目。"
)

var ErrNotConfigured = errors.New("no LLM provider configured")

// Summarizer fills per-record summaries and writes the daily digest.
// Implementations never fail: they degrade to fallback text.
type Summarizer interface {
	SummarizeRecords(ctx context.Context, records []*record.Record)
	DailyDigest(ctx context.Context, records []record.Record) string
}

type Config struct {
	Provider        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	ClaudeModel     string
	OpenAIModel     string
	MaxTokens       int
	Temperature     float64
	AnthropicURL    string
	OpenAIURL       string
	Timeout         time.Duration
}

// LLM summarizes through the configured provider and falls back to the
// other provider when the first call fails.
type LLM struct {
	clients []Client
	logger  *slog.Logger
}

var _ Summarizer = (*LLM)(nil)

func New(cfg Config, logger *slog.Logger) *LLM {
	if cfg.ClaudeModel == "" {
		cfg.ClaudeModel = DefaultClaudeModel
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	var anthropic, openai Client
	if cfg.AnthropicAPIKey != "" {
		anthropic = NewAnthropicClient(ClientConfig{
			BaseURL:     cfg.AnthropicURL,
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.ClaudeModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, httpClient)
	}
	if cfg.OpenAIAPIKey != "" {
		openai = NewOpenAIClient(ClientConfig{
			BaseURL:     cfg.OpenAIURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, httpClient)
	}

	var clients []Client
	switch cfg.Provider {
	case ProviderOpenAI:
		clients = appendClient(clients, openai)
	case ProviderClaude, "":
		clients = appendClient(clients, anthropic, openai)
	default:
		logger.Warn("Unknown LLM provider, using Claude", "provider", cfg.Provider)
		clients = appendClient(clients, anthropic, openai)
	}

	return NewWithClients(logger, clients...)
}

// NewWithClients builds a summarizer that tries clients in order.
func NewWithClients(logger *slog.Logger, clients ...Client) *LLM {
	return &LLM{clients: clients, logger: logger}
}

func appendClient(clients []Client, candidates ...Client) []Client {
	for _, c := range candidates {
		if c != nil {
			clients = append(clients, c)
		}
	}
	return clients
}

// Configured reports whether any provider has an API key.
func (s *LLM) Configured() bool {
	return len(s.clients) > 0
}

// SummarizeRecords sets Summary and Sentiment on every record, one LLM call
// per batch of BatchSize records.
func (s *LLM) SummarizeRecords(ctx context.Context, records []*record.Record) {
	for start := 0; start < len(records); start += BatchSize {
		end := min(start+BatchSize, len(records))
		s.summarizeBatch(ctx, records[start:end])
	}
}

func (s *LLM) summarizeBatch(ctx context.Context, batch []*record.Record) {
	defer applyFallback(batch)

	reply, err := s.complete(ctx, buildBatchPrompt(batch))
	if err != nil {
		s.logger.Warn("Batch summary failed", "items", len(batch), "error", err)
		return
	}

	results, err := parseBatchReply(reply)
	if err != nil {
		s.logger.Warn("Failed to parse batch summary", "items", len(batch), "error", err)
		return
	}

	for _, result := range results {
		idx := result.Index - 1
		if idx < 0 || idx >= len(batch) {
			continue
		}
		batch[idx].Summary = strings.TrimSpace(result.Summary)
		batch[idx].Sentiment = normalizeSentiment(result.Sentiment)
	}
}

// DailyDigest returns the LLM-written digest of the top records, or a
// fixed fallback text when no provider answers.
func (s *LLM) DailyDigest(ctx context.Context, records []record.Record) string {
	if len(records) == 0 {
		return NoDataDigest
	}

	digest, err := s.complete(ctx, buildDigestPrompt(records))
	if err != nil {
		s.logger.Warn("Daily digest failed", "error", err)
		return FallbackDigest
	}

	digest = strings.TrimSpace(digest)
	if digest == "" {
		return FallbackDigest
	}
	return digest
}

func (s *LLM) complete(ctx context.Context, prompt string) (string, error) {
	if len(s.clients) == 0 {
		return "", ErrNotConfigured
	}

	var errs []error
	for i, client := range s.clients {
		start := time.Now()
		reply, err := client.Complete(ctx, prompt)
		if err == nil {
			s.logger.Debug("LLM call completed", "provider", client.Name(), "duration", time.Since(start))
			return reply, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", client.Name(), err))
		if i+1 < len(s.clients) {
			s.logger.Warn("LLM call failed, trying next provider",
				"provider", client.Name(),
				"next", s.clients[i+1].Name(),
				"error", err)
		}
	}

	return "", errors.Join(errs...)
}

type batchResult struct {
	Index     int    `json:"index"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

func parseBatchReply(reply string) ([]batchResult, error) {
	var results []batchResult
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &results); err != nil {
		return nil, fmt.Errorf("failed to decode batch reply: %w", err)
	}
	return results, nil
}

// stripCodeFence removes a surrounding ``` block, with or without a
// language tag.
func stripCodeFence(reply string) string {
	reply = strings.TrimSpace(reply)
	if !strings.HasPrefix(reply, "```") {
		return reply
	}

	if _, rest, found := strings.Cut(reply, "\n"); found {
		reply = rest
	} else {
		reply = strings.TrimPrefix(reply, "```")
	}
	reply = strings.TrimSpace(reply)

	return strings.TrimSpace(strings.TrimSuffix(reply, "```"))
}

func normalizeSentiment(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func applyFallback(batch []*record.Record) {
	for _, r := range batch {
		if r.Summary == "" {
			r.Summary = prefix(r.Title, fallbackSummaryLength)
		}
		if r.Sentiment == "" {
			r.Sentiment = SentimentNeutral
		}
	}
}
