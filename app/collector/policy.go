package collector

import (
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultLookbackDays = 1
	DefaultMaxItems     = 30
)

// Policy holds the filtering rules every adapter applies to its records.
type Policy struct {
	Matcher       *record.Matcher
	LookbackDays  int
	MaxItems      int
	MinEngagement int
}

func (p Policy) Since() time.Time {
	days := p.LookbackDays
	if days <= 0 {
		days = DefaultLookbackDays
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}

func (p Policy) WithMinEngagement(threshold int) Policy {
	p.MinEngagement = threshold
	return p
}

func (p Policy) Keywords() []string {
	if p.Matcher == nil {
		return nil
	}
	return p.Matcher.Keywords()
}

func (p Policy) Mentions(text string) bool {
	if p.Matcher == nil {
		return true
	}
	return p.Matcher.Matches(text)
}

// Keep reports whether r passes the keyword, engagement and time window
// checks. Search hits from KOLs are held to the same threshold.
func (p Policy) Keep(r record.Record) bool {
	if r.Engagement < p.MinEngagement {
		return false
	}
	return p.keepRelevant(r)
}

// KeepKOLPost is Keep for posts read from a KOL's own timeline, which skip
// the engagement threshold.
func (p Policy) KeepKOLPost(r record.Record) bool {
	return p.keepRelevant(r)
}

func (p Policy) keepRelevant(r record.Record) bool {
	if r.URL == "" || r.Title == "" {
		return false
	}
	if !p.Mentions(r.Title + " " + r.Content) {
		return false
	}
	return !r.PublishedAt.Before(p.Since())
}

// Finalize drops repeated URLs, tags products, fills in language and returns
// at most MaxItems records ordered by engagement score.
func (p Policy) Finalize(records []record.Record) []record.Record {
	seen := make(map[string]bool, len(records))
	unique := make([]record.Record, 0, len(records))

	for _, r := range records {
		if r.URL == "" || r.Title == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		if p.Matcher != nil {
			p.Matcher.Tag(&r)
		}
		if r.Language == "" {
			r.Language = record.DetectLanguage(r.Title + " " + r.Content)
		}
		unique = append(unique, r)
	}

	sorted := record.SortByEngagement(unique)

	maxItems := p.MaxItems
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if len(sorted) > maxItems {
		sorted = sorted[:maxItems]
	}
	return sorted
}
