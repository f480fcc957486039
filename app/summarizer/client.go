package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultAnthropicURL = "https://api.anthropic.com"
	DefaultOpenAIURL    = "https://api.openai.com"

	anthropicVersion = "2023-06-01"
	systemPrompt     = "你是一个 AI 编程工具行业分析师，擅长从社交媒体和新闻中提炼关键信息。"
)

// Client sends a single prompt to a chat model and returns the reply text.
type Client interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

var _ Client = (*AnthropicClient)(nil)

func NewAnthropicClient(cfg ClientConfig, httpClient *http.Client) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnthropicURL
	}
	return &AnthropicClient{cfg: cfg, httpClient: httpClient}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": anthropicVersion,
	}

	var reply struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := postJSON(ctx, c.httpClient, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/messages", headers, body, &reply); err != nil {
		return "", err
	}

	for _, block := range reply.Content {
		if block.Type == "" || block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic reply has no text content")
}

// OpenAIClient talks to an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

var _ Client = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg ClientConfig, httpClient *http.Client) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIURL
	}
	return &OpenAIClient{cfg: cfg, httpClient: httpClient}
}

func (c *OpenAIClient) Name() string {
	return "openai"
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"max_tokens":  c.cfg.MaxTokens,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := postJSON(ctx, c.httpClient, strings.TrimRight(c.cfg.BaseURL, "/")+"/v1/chat/completions", headers, body, &reply); err != nil {
		return "", err
	}

	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("openai reply has no choices")
	}
	return reply.Choices[0].Message.Content, nil
}

func postJSON(ctx context.Context, httpClient *http.Client, url string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("HTTP error: %s: %s", resp.Status, strings.TrimSpace(string(message)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
