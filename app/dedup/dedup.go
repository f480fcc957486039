package dedup

import (
	"log/slog"

	"github.com/lysyi3m/news-comb/app/record"
)

const DefaultThreshold = 0.75

type Deduplicator struct {
	threshold float64
}

func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{threshold: threshold}
}

func (d *Deduplicator) Threshold() float64 {
	return d.threshold
}

// Run merges records sharing a normalized URL, then folds records with
// near-identical titles into the higher-scored one. The result is ordered by
// engagement score. Input records are not modified.
func (d *Deduplicator) Run(records []record.Record) []record.Record {
	byURL := d.byURL(records)
	kept := d.byTitle(byURL)

	slog.Debug("Deduplication completed",
		"input", len(records),
		"after_url", len(byURL),
		"after_title", len(kept),
		"threshold", d.threshold)

	return kept
}

func (d *Deduplicator) byURL(records []record.Record) []record.Record {
	survivors := make([]record.Record, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		normalized := NormalizeURL(r.URL)
		r = r.Clone()
		r.URL = normalized

		pos, seen := index[normalized]
		if !seen {
			index[normalized] = len(survivors)
			survivors = append(survivors, r)
			continue
		}
		if r.EngagementScore() > survivors[pos].EngagementScore() {
			survivors[pos] = r
		}
	}

	return survivors
}

func (d *Deduplicator) byTitle(records []record.Record) []record.Record {
	sorted := record.SortByEngagement(records)

	kept := make([]record.Record, 0, len(sorted))
	keptTitles := make([]string, 0, len(sorted))

	for _, candidate := range sorted {
		title := NormalizeTitle(candidate.Title)

		duplicate := false
		for i, keptTitle := range keptTitles {
			if Similarity(title, keptTitle) >= d.threshold {
				kept[i].AddTags(candidate.Tags...)
				duplicate = true
				break
			}
		}

		if !duplicate {
			kept = append(kept, candidate)
			keptTitles = append(keptTitles, title)
		}
	}

	return kept
}
