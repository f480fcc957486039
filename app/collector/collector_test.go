package collector

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/lysyi3m/news-comb/app/record"
)

type stubCollector struct {
	name    string
	records []record.Record
	panic   any
}

func (s *stubCollector) SourceName() string {
	return s.name
}

func (s *stubCollector) Collect(ctx context.Context) []record.Record {
	if s.panic != nil {
		panic(s.panic)
	}
	return s.records
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSafeCollect_ReturnsRecords(t *testing.T) {
	c := &stubCollector{name: "stub", records: []record.Record{{URL: "https://a.com", Title: "a"}}}

	result := SafeCollect(context.Background(), c, discardLogger())

	if len(result) != 1 {
		t.Errorf("Expected 1 record, got %d", len(result))
	}
}

func TestSafeCollect_RecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := &stubCollector{name: "broken", panic: "boom"}

	result := SafeCollect(context.Background(), c, logger)

	if result == nil || len(result) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", result)
	}

	output := buf.String()
	if !strings.Contains(output, "level=ERROR") {
		t.Errorf("Expected error log line, got: %s", output)
	}
	if !strings.Contains(output, "source=broken") || !strings.Contains(output, "panic=boom") {
		t.Errorf("Expected log to name source and panic value, got: %s", output)
	}
}

func TestSafeCollect_NilResultBecomesEmpty(t *testing.T) {
	c := &stubCollector{name: "empty"}

	result := SafeCollect(context.Background(), c, nil)

	if result == nil {
		t.Errorf("Expected empty slice, got nil")
	}
}
