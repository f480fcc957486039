package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

type jsonReport struct {
	Date        string          `json:"date"`
	GeneratedAt string          `json:"generated_at"`
	Digest      string          `json:"digest"`
	Stats       jsonStats       `json:"stats"`
	Records     []record.Record `json:"records"`
}

type jsonStats struct {
	Total    int                `json:"total"`
	KOLCount int                `json:"kol_count"`
	BySource map[string]int     `json:"by_source"`
	Products []jsonProductStats `json:"products"`
}

type jsonProductStats struct {
	Name              string  `json:"name"`
	Count             int     `json:"count"`
	AverageEngagement float64 `json:"average_engagement"`
}

// JSONWriter exports the report data to <dir>/<date>.json
type JSONWriter struct {
	dir string
}

var _ Writer = (*JSONWriter)(nil)

func NewJSONWriter(dir string) *JSONWriter {
	return &JSONWriter{dir: dir}
}

func (w *JSONWriter) Format() string {
	return "json"
}

func (w *JSONWriter) Render(in Input) ([]byte, error) {
	out := jsonReport{
		Date:        in.Date,
		GeneratedAt: in.GeneratedAt.UTC().Format(time.RFC3339),
		Digest:      in.Digest,
		Stats: jsonStats{
			Total:    in.Stats.Total,
			KOLCount: in.Stats.KOLCount,
			BySource: in.Stats.BySource,
			Products: []jsonProductStats{},
		},
		Records: in.Records,
	}
	if out.Records == nil {
		out.Records = []record.Record{}
	}
	if out.Stats.BySource == nil {
		out.Stats.BySource = map[string]int{}
	}
	for _, p := range in.Stats.Products {
		out.Stats.Products = append(out.Stats.Products, jsonProductStats{
			Name:              p.Name,
			Count:             p.Count,
			AverageEngagement: p.AverageEngagement,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return data, nil
}

func (w *JSONWriter) Write(in Input) (string, error) {
	data, err := w.Render(in)
	if err != nil {
		return "", err
	}

	path, err := writeFile(w.dir, in.Date+".json", data)
	if err != nil {
		return "", err
	}

	slog.Info("Report saved", "format", w.Format(), "path", path, "items", len(in.Records))

	return path, nil
}
