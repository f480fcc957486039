package record

import (
	"testing"
)

func TestSortByEngagement_StableTieBreak(t *testing.T) {
	records := []Record{
		{Title: "first", Engagement: 10},
		{Title: "second", Engagement: 30},
		{Title: "third", Engagement: 10},
		{Title: "fourth", Engagement: 10},
	}

	sorted := SortByEngagement(records)

	expected := []string{"second", "first", "third", "fourth"}
	for i, title := range expected {
		if sorted[i].Title != title {
			t.Errorf("Expected position %d to be %s, got %s", i, title, sorted[i].Title)
		}
	}

	if records[0].Title != "first" || records[1].Title != "second" {
		t.Errorf("Expected input slice to be left untouched")
	}
}

func TestGroupByProduct(t *testing.T) {
	records := []Record{
		{Title: "a", Engagement: 1, Tags: []string{"Claude", "Cursor"}},
		{Title: "b", Engagement: 5, Tags: []string{"Cursor"}},
		{Title: "c", Engagement: 2},
		{Title: "d", Engagement: 3, Tags: []string{"Claude", "Codex", "Cursor"}},
	}

	groups := GroupByProduct(records)

	expectedKeys := []string{"Claude", "Cursor", Unclassified, "Codex"}
	keys := groups.Keys()
	if len(keys) != len(expectedKeys) {
		t.Fatalf("Expected %d groups, got %d: %v", len(expectedKeys), len(keys), keys)
	}
	for i, key := range expectedKeys {
		if keys[i] != key {
			t.Errorf("Expected key %d to be %s, got %s", i, key, keys[i])
		}
	}

	cursor := groups.Get("Cursor")
	if len(cursor) != 3 {
		t.Fatalf("Expected 3 Cursor records, got %d", len(cursor))
	}
	if cursor[0].Title != "b" || cursor[1].Title != "d" || cursor[2].Title != "a" {
		t.Errorf("Expected Cursor group ranked b,d,a, got %s,%s,%s", cursor[0].Title, cursor[1].Title, cursor[2].Title)
	}

	// every record appears once per tag, or once in Unclassified
	total := 0
	for _, key := range groups.Keys() {
		total += len(groups.Get(key))
	}
	if total != 7 {
		t.Errorf("Expected 7 group memberships, got %d", total)
	}
}

func TestGroupBySource(t *testing.T) {
	records := []Record{
		{Title: "a", Source: SourceHackerNews, Engagement: 1},
		{Title: "b", Source: SourceReddit, Engagement: 4, Tags: []string{"Claude", "Cursor"}},
		{Title: "c", Source: SourceHackerNews, Engagement: 9},
	}

	groups := GroupBySource(records)

	if groups.Len() != 2 {
		t.Fatalf("Expected 2 source groups, got %d", groups.Len())
	}
	hn := groups.Get(string(SourceHackerNews))
	if len(hn) != 2 || hn[0].Title != "c" {
		t.Errorf("Expected hackernews group ranked with c first, got %v", hn)
	}
	if len(groups.Get(string(SourceReddit))) != 1 {
		t.Errorf("Expected tagged record to appear in exactly one source group")
	}
}

func TestFilterKOL(t *testing.T) {
	records := []Record{
		{Title: "a", IsKOL: true, KOLTier: TierB, Engagement: 10},
		{Title: "b", Engagement: 100},
		{Title: "c", IsKOL: true, KOLTier: TierS, Engagement: 10},
	}

	kol := FilterKOL(records)

	if len(kol) != 2 {
		t.Fatalf("Expected 2 KOL records, got %d", len(kol))
	}
	if kol[0].Title != "c" {
		t.Errorf("Expected tier S record first, got %s", kol[0].Title)
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Source: SourceHackerNews, Engagement: 10, Tags: []string{"Claude"}},
		{Source: SourceHackerNews, Engagement: 20, Tags: []string{"Claude", "Cursor"}, IsKOL: true},
		{Source: SourceTwitter, Engagement: 6, Tags: []string{"Cursor"}},
		{Source: SourceTwitter, Engagement: 3, Tags: []string{"Cursor"}},
		{Source: SourceZhihu, Engagement: 1},
	}

	stats := Summarize(records)

	if stats.Total != 5 {
		t.Errorf("Expected total 5, got %d", stats.Total)
	}
	if stats.KOLCount != 1 {
		t.Errorf("Expected 1 KOL record, got %d", stats.KOLCount)
	}
	if stats.BySource["hackernews"] != 2 || stats.BySource["twitter"] != 2 || stats.BySource["zhihu"] != 1 {
		t.Errorf("Unexpected source counts: %v", stats.BySource)
	}
	if len(stats.Products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(stats.Products))
	}
	if stats.Products[0].Name != "Cursor" || stats.Products[0].Count != 3 {
		t.Errorf("Expected Cursor with 3 mentions first, got %+v", stats.Products[0])
	}
	if stats.Products[1].AverageEngagement != 15 {
		t.Errorf("Expected Claude average engagement 15, got %v", stats.Products[1].AverageEngagement)
	}
}
