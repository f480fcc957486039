package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

var testTime = time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)

func testRecords() []record.Record {
	hn := record.New(record.SourceHackerNews, "https://example.com/claude", "Claude Code is out", testTime)
	hn.Author = "pg"
	hn.Engagement = 120
	hn.CommentsCount = 30
	hn.Tags = []string{"Claude"}
	hn.Summary = "Claude Code 正式发布"

	kol := record.New(record.SourceTwitter, "https://twitter.com/karpathy/status/1", "Trying Cursor & Claude today", testTime)
	kol.Author = "Andrej Karpathy"
	kol.AuthorHandle = "@karpathy"
	kol.Content = "Trying Cursor & Claude today"
	kol.Engagement = 10
	kol.IsKOL = true
	kol.KOLTier = record.TierS
	kol.Tags = []string{"Cursor", "Claude"}

	plain := record.New(record.SourceReddit, "https://www.reddit.com/r/x/1", "Misc thread", testTime)
	plain.Author = "bob"
	plain.Engagement = 3

	return []record.Record{plain, hn, kol}
}

func TestNewInput(t *testing.T) {
	in := NewInput(testRecords(), "digest", testTime.In(time.FixedZone("CST", 8*3600)))

	if in.Date != "2025-03-10" {
		t.Errorf("Expected date 2025-03-10, got %s", in.Date)
	}
	if in.GeneratedAt.Location() != time.UTC {
		t.Errorf("Expected UTC generation time")
	}
	if in.Records[0].URL != "https://example.com/claude" {
		t.Errorf("Expected records ranked by score, got %s first", in.Records[0].URL)
	}
	if len(in.KOL) != 1 || in.Stats.Total != 3 || in.Stats.KOLCount != 1 {
		t.Errorf("Unexpected derived views: kol=%d stats=%+v", len(in.KOL), in.Stats)
	}
	if got := strings.Join(in.ByProduct.Keys(), ","); got != "Claude,Cursor,Unclassified" {
		t.Errorf("Unexpected product keys: %s", got)
	}
}

func TestMarkdownWriter_Render(t *testing.T) {
	writer := NewMarkdownWriter(t.TempDir())

	data, err := writer.Render(NewInput(testRecords(), "今日热点: Claude Code", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	report := string(data)

	expected := []string{
		"# 🤖 AI 编程工具日报 2025-03-10",
		"> 生成时间: 2025-03-10 08:30 UTC",
		"| 采集条目总数 | 3 |",
		"| 涉及数据源 | hackernews, twitter, reddit |",
		"| KOL 相关 | 1 条 |",
		"| 涵盖产品 | Claude, Cursor |",
		"今日热点: Claude Code",
		"### 🟠 Claude（2 条）",
		"1. **Claude Code is out**",
		"   - 来源: 🔶 Hacker News | 作者: pg\n",
		"   - 📝 Claude Code 正式发布",
		"2. 🌟 **[KOL]** **Trying Cursor & Claude today**",
		"### 📎 未分类（1 条）",
		"### 1. Andrej Karpathy (@karpathy) · ⭐⭐⭐ 顶级影响力",
		"- 产品: Cursor, Claude",
		"### 🐦 Twitter/X（1 条）",
		"- [Misc thread](https://www.reddit.com/r/x/1) · bob · 👍3",
		"| Claude | 2 | 65 |",
		"| 未分类 | 1 | 3 |",
		"| 🟧 Reddit | 1 |",
	}
	for _, want := range expected {
		if !strings.Contains(report, want) {
			t.Errorf("Expected report to contain %q", want)
		}
	}

	if strings.Contains(report, "&amp;") {
		t.Error("Markdown should not HTML-escape text")
	}
}

func TestMarkdownWriter_RenderEmpty(t *testing.T) {
	writer := NewMarkdownWriter(t.TempDir())

	data, err := writer.Render(NewInput(nil, "", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	report := string(data)

	for _, want := range []string{
		"| 采集条目总数 | 0 |",
		"| 涵盖产品 | 暂无 |",
		noDigestText,
		"_今日暂无 KOL 相关内容采集到。_",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("Expected empty report to contain %q", want)
		}
	}
}

func TestMarkdownWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	writer := NewMarkdownWriter(dir)

	path, err := writer.Write(NewInput(testRecords(), "", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if path != filepath.Join(dir, "2025-03-10.md") {
		t.Errorf("Unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected report file to exist: %v", err)
	}
}

func TestMarkdownLimits(t *testing.T) {
	var records []record.Record
	for i := 0; i < 12; i++ {
		r := record.New(record.SourceHackerNews, "https://example.com/"+string(rune('a'+i)), "Claude item "+string(rune('a'+i)), testTime)
		r.Tags = []string{"Claude"}
		r.Engagement = 100 - i
		records = append(records, r)
	}

	data, err := NewMarkdownWriter(t.TempDir()).Render(NewInput(records, "", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	report := string(data)

	if !strings.Contains(report, "10. **Claude item j**") {
		t.Error("Expected 10th product item")
	}
	if strings.Contains(report, "11. **") {
		t.Error("Expected product section capped at 10 items")
	}
	if strings.Contains(report, "[Claude item i]") {
		t.Error("Expected source section capped at 8 items")
	}
	if !strings.Contains(report, "[Claude item h]") {
		t.Error("Expected 8th source item")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("Expected unchanged text, got %q", got)
	}
	if got := truncate("你好世界", 2); got != "你好..." {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}

func TestLabels(t *testing.T) {
	if sourceLabel("weibo_zhihu") != "🇨🇳 微博/知乎" {
		t.Errorf("Unexpected weibo_zhihu label")
	}
	if sourceLabel("unknown") != "unknown" {
		t.Errorf("Expected unknown source to pass through")
	}
	if productEmoji("Windsurf") != "🩷" || productEmoji("Zed") != "📦" {
		t.Errorf("Unexpected product emojis")
	}
	if tierLabel(record.TierA) != "⭐⭐ 高影响力" || tierLabel("") != "" {
		t.Errorf("Unexpected tier labels")
	}
}

func TestJSONWriter_Write(t *testing.T) {
	dir := t.TempDir()
	writer := NewJSONWriter(dir)

	path, err := writer.Write(NewInput(testRecords(), "digest", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if filepath.Base(path) != "2025-03-10.json" {
		t.Errorf("Unexpected file name %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}

	var out struct {
		Date   string `json:"date"`
		Digest string `json:"digest"`
		Stats  struct {
			Total    int            `json:"total"`
			BySource map[string]int `json:"by_source"`
			Products []struct {
				Name  string `json:"name"`
				Count int    `json:"count"`
			} `json:"products"`
		} `json:"stats"`
		Records []record.Record `json:"records"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Failed to decode export: %v", err)
	}

	if out.Date != "2025-03-10" || out.Digest != "digest" {
		t.Errorf("Unexpected header: %s %s", out.Date, out.Digest)
	}
	if out.Stats.Total != 3 || out.Stats.BySource["twitter"] != 1 {
		t.Errorf("Unexpected stats: %+v", out.Stats)
	}
	if len(out.Stats.Products) != 2 || out.Stats.Products[0].Name != "Claude" {
		t.Errorf("Unexpected product stats: %+v", out.Stats.Products)
	}
	if len(out.Records) != 3 || out.Records[0].Engagement != 120 {
		t.Errorf("Unexpected records: %+v", out.Records)
	}
}

func TestJSONWriter_EmptyRecords(t *testing.T) {
	data, err := NewJSONWriter(t.TempDir()).Render(NewInput(nil, "", testTime))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(data), `"records": []`) {
		t.Errorf("Expected empty records array, got %s", data)
	}
}
