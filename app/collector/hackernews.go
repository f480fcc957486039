package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const HackerNewsBaseURL = "https://hn.algolia.com/api/v1"

type HackerNewsConfig struct {
	BaseURL    string
	MinScore   int
	SearchTags []string
}

type HackerNews struct {
	policy  Policy
	fetcher *Fetcher
	config  HackerNewsConfig
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

func NewHackerNews(policy Policy, fetcher *Fetcher, config HackerNewsConfig) *HackerNews {
	if config.BaseURL == "" {
		config.BaseURL = HackerNewsBaseURL
	}
	if len(config.SearchTags) == 0 {
		config.SearchTags = []string{"story"}
	}
	return &HackerNews{
		policy:  policy.WithMinEngagement(config.MinScore),
		fetcher: fetcher,
		config:  config,
	}
}

func (h *HackerNews) SourceName() string {
	return string(record.SourceHackerNews)
}

func (h *HackerNews) Collect(ctx context.Context) []record.Record {
	var records []record.Record
	since := h.policy.Since()

	for _, keyword := range h.policy.Keywords() {
		results, err := h.search(ctx, keyword, since)
		if err != nil {
			slog.Warn("Keyword search failed", "source", h.SourceName(), "keyword", keyword, "error", err)
			continue
		}
		records = append(records, results...)

		if len(records) >= h.policy.MaxItems && h.policy.MaxItems > 0 {
			break
		}
	}

	return h.policy.Finalize(records)
}

func (h *HackerNews) search(ctx context.Context, keyword string, since time.Time) ([]record.Record, error) {
	params := url.Values{}
	params.Set("query", keyword)
	params.Set("tags", "("+strings.Join(h.config.SearchTags, ",")+")")
	params.Set("numericFilters", fmt.Sprintf("created_at_i>%d,points>%d", since.Unix(), h.config.MinScore))
	params.Set("hitsPerPage", "20")
	params.Set("page", "0")

	var resp hnSearchResponse
	if err := h.fetcher.GetJSON(ctx, withQuery(h.config.BaseURL+"/search", params), nil, &resp); err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		r := h.toRecord(hit)
		if !h.policy.Keep(r) {
			continue
		}
		records = append(records, r)
	}

	slog.Debug("Keyword search completed", "source", h.SourceName(), "keyword", keyword, "items", len(records))

	return records, nil
}

func (h *HackerNews) toRecord(hit hnHit) record.Record {
	link := hit.URL
	if link == "" {
		link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
	}

	publishedAt, _ := time.Parse(time.RFC3339, hit.CreatedAt)

	r := record.New(record.SourceHackerNews, link, hit.Title, publishedAt)
	r.Content = hit.Title
	if hit.StoryText != "" {
		r.Content = StripHTML(hit.StoryText)
	}
	r.Author = hit.Author
	r.Engagement = hit.Points
	r.CommentsCount = hit.NumComments

	return r
}
