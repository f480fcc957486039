package record

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecord_EngagementScore(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected float64
	}{
		{"tier S", Record{Engagement: 10, CommentsCount: 5, KOLTier: TierS}, 60},
		{"tier A", Record{Engagement: 10, CommentsCount: 5, KOLTier: TierA}, 40},
		{"tier B", Record{Engagement: 10, CommentsCount: 0, KOLTier: TierB}, 15},
		{"no tier", Record{Engagement: 10, CommentsCount: 5}, 20},
		{"unknown tier", Record{Engagement: 7, KOLTier: "C"}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.EngagementScore(); got != tt.expected {
				t.Errorf("Expected score %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRecord_AddTags(t *testing.T) {
	r := Record{Tags: []string{"Claude"}}
	r.AddTags("Cursor", "Claude", "", "Codex", "Cursor")

	expected := []string{"Claude", "Cursor", "Codex"}
	if len(r.Tags) != len(expected) {
		t.Fatalf("Expected %d tags, got %d: %v", len(expected), len(r.Tags), r.Tags)
	}
	for i, tag := range expected {
		if r.Tags[i] != tag {
			t.Errorf("Expected tag %d to be %s, got %s", i, tag, r.Tags[i])
		}
	}
}

func TestRecord_Clone(t *testing.T) {
	original := Record{Title: "a", Tags: []string{"Claude"}}
	clone := original.Clone()
	clone.AddTags("Cursor")

	if len(original.Tags) != 1 {
		t.Errorf("Expected original tags to be untouched, got %v", original.Tags)
	}
}

func TestNew_DefaultsPublishedAt(t *testing.T) {
	before := time.Now().UTC()
	r := New(SourceHackerNews, "https://example.com", "Title", time.Time{})

	if r.PublishedAt.Before(before) {
		t.Errorf("Expected zero published time to default to now, got %v", r.PublishedAt)
	}
	if r.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected UTC published time, got %v", r.PublishedAt.Location())
	}
	if !r.CollectedAt.Equal(r.PublishedAt) {
		t.Errorf("Expected published time to match collection time, got %v and %v", r.PublishedAt, r.CollectedAt)
	}
}

func TestNew_NormalizesToUTC(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	published := time.Date(2025, 3, 1, 8, 0, 0, 0, shanghai)

	r := New(SourceWeibo, "https://weibo.com/1", "标题", published)

	if r.PublishedAt.Hour() != 0 || r.PublishedAt.Location() != time.UTC {
		t.Errorf("Expected 00:00 UTC, got %v", r.PublishedAt)
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	r := Record{
		URL:           "https://example.com/post",
		Title:         "Claude Code release",
		Source:        SourceReddit,
		Author:        "alice",
		AuthorHandle:  "u/alice",
		PublishedAt:   time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		CollectedAt:   time.Date(2025, 1, 2, 4, 0, 0, 0, time.UTC),
		Engagement:    10,
		CommentsCount: 5,
		KOLTier:       TierS,
		IsKOL:         true,
		Language:      "en",
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to decode JSON: %v", err)
	}

	if decoded["published_at"] != "2025-01-02T03:04:05Z" {
		t.Errorf("Expected RFC3339 published_at, got %v", decoded["published_at"])
	}
	if decoded["engagement_score"] != 60.0 {
		t.Errorf("Expected engagement_score 60, got %v", decoded["engagement_score"])
	}
	if decoded["author_handle"] != "u/alice" {
		t.Errorf("Expected author_handle u/alice, got %v", decoded["author_handle"])
	}
	if tags, ok := decoded["tags"].([]any); !ok || len(tags) != 0 {
		t.Errorf("Expected empty tags array, got %v", decoded["tags"])
	}

	var restored Record
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}
	if !restored.PublishedAt.Equal(r.PublishedAt) {
		t.Errorf("Expected published time %v, got %v", r.PublishedAt, restored.PublishedAt)
	}
	if restored.EngagementScore() != 60 {
		t.Errorf("Expected restored score 60, got %v", restored.EngagementScore())
	}
}
