package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const DateLayout = "2006-01-02"

// Input is everything a renderer needs for one daily report.
type Input struct {
	Date        string
	GeneratedAt time.Time
	Records     []record.Record
	ByProduct   *record.Groups
	BySource    *record.Groups
	KOL         []record.Record
	Digest      string
	Stats       record.Stats
}

// NewInput derives the grouped views from the ranked records.
func NewInput(records []record.Record, digest string, generatedAt time.Time) Input {
	generatedAt = generatedAt.UTC()
	ranked := record.SortByEngagement(records)

	return Input{
		Date:        generatedAt.Format(DateLayout),
		GeneratedAt: generatedAt,
		Records:     ranked,
		ByProduct:   record.GroupByProduct(ranked),
		BySource:    record.GroupBySource(ranked),
		KOL:         record.FilterKOL(ranked),
		Digest:      digest,
		Stats:       record.Summarize(ranked),
	}
}

// Writer renders an Input into a file and returns its path.
type Writer interface {
	Format() string
	Write(in Input) (string, error)
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
