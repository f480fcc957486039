package record

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

type Source string

const (
	SourceHackerNews Source = "hackernews"
	SourceReddit     Source = "reddit"
	SourceTwitter    Source = "twitter"
	SourceWeibo      Source = "weibo"
	SourceZhihu      Source = "zhihu"
	SourceTechNews   Source = "tech_news"
)

const (
	TierS = "S"
	TierA = "A"
	TierB = "B"
)

// Record is one piece of collected content. Only Tags (dedup union) and
// Summary/Sentiment (summarizer) change after a collector builds it.
type Record struct {
	URL     string
	Title   string
	Content string

	Source       Source
	Author       string
	AuthorHandle string

	PublishedAt time.Time
	CollectedAt time.Time

	Engagement    int
	CommentsCount int

	Tags    []string
	IsKOL   bool
	KOLTier string

	Language  string
	Summary   string
	Sentiment string
}

// New builds a record with timestamps normalized to UTC. A zero publishedAt
// falls back to the collection time.
func New(source Source, url, title string, publishedAt time.Time) Record {
	now := time.Now().UTC()
	if publishedAt.IsZero() {
		publishedAt = now
	}
	return Record{
		Source:      source,
		URL:         url,
		Title:       title,
		PublishedAt: publishedAt.UTC(),
		CollectedAt: now,
	}
}

func TierMultiplier(tier string) float64 {
	switch tier {
	case TierS:
		return 3.0
	case TierA:
		return 2.0
	case TierB:
		return 1.5
	default:
		return 1.0
	}
}

// EngagementScore is the ranking key for every sort and conflict decision.
func (r Record) EngagementScore() float64 {
	return float64(r.Engagement+r.CommentsCount*2) * TierMultiplier(r.KOLTier)
}

// AddTags appends tags not yet present, keeping existing order.
func (r *Record) AddTags(tags ...string) {
	for _, tag := range tags {
		if tag == "" || slices.Contains(r.Tags, tag) {
			continue
		}
		r.Tags = append(r.Tags, tag)
	}
}

func (r Record) Clone() Record {
	r.Tags = slices.Clone(r.Tags)
	return r
}

func (r Record) String() string {
	title := []rune(r.Title)
	if len(title) > 50 {
		title = title[:50]
	}
	return fmt.Sprintf("Record(source=%s, author=%q, engagement=%d, title=%q)", r.Source, r.Author, r.Engagement, string(title))
}

type recordJSON struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Source          Source   `json:"source"`
	Author          string   `json:"author"`
	AuthorHandle    string   `json:"author_handle"`
	PublishedAt     string   `json:"published_at"`
	CollectedAt     string   `json:"collected_at"`
	Engagement      int      `json:"engagement"`
	CommentsCount   int      `json:"comments_count"`
	EngagementScore float64  `json:"engagement_score"`
	Tags            []string `json:"tags"`
	IsKOL           bool     `json:"is_kol"`
	KOLTier         string   `json:"kol_tier"`
	Language        string   `json:"language"`
	Summary         string   `json:"summary"`
	Sentiment       string   `json:"sentiment"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(recordJSON{
		URL:             r.URL,
		Title:           r.Title,
		Content:         r.Content,
		Source:          r.Source,
		Author:          r.Author,
		AuthorHandle:    r.AuthorHandle,
		PublishedAt:     r.PublishedAt.UTC().Format(time.RFC3339),
		CollectedAt:     r.CollectedAt.UTC().Format(time.RFC3339),
		Engagement:      r.Engagement,
		CommentsCount:   r.CommentsCount,
		EngagementScore: r.EngagementScore(),
		Tags:            tags,
		IsKOL:           r.IsKOL,
		KOLTier:         r.KOLTier,
		Language:        r.Language,
		Summary:         r.Summary,
		Sentiment:       r.Sentiment,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	publishedAt, err := parseTimestamp(raw.PublishedAt)
	if err != nil {
		return fmt.Errorf("failed to parse published_at: %w", err)
	}
	collectedAt, err := parseTimestamp(raw.CollectedAt)
	if err != nil {
		return fmt.Errorf("failed to parse collected_at: %w", err)
	}

	*r = Record{
		URL:           raw.URL,
		Title:         raw.Title,
		Content:       raw.Content,
		Source:        raw.Source,
		Author:        raw.Author,
		AuthorHandle:  raw.AuthorHandle,
		PublishedAt:   publishedAt,
		CollectedAt:   collectedAt,
		Engagement:    raw.Engagement,
		CommentsCount: raw.CommentsCount,
		Tags:          raw.Tags,
		IsKOL:         raw.IsKOL,
		KOLTier:       raw.KOLTier,
		Language:      raw.Language,
		Summary:       raw.Summary,
		Sentiment:     raw.Sentiment,
	}
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
