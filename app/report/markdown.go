package report

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"text/template"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const noDigestText = "_LLM 摘要未生成，请查看详细条目。_"

// Sections list at most 10 items per product, 15 KOL items and 8 items per source.
const markdownTemplate = `# 🤖 AI 编程工具日报 {{ .Date }}

> 自动采集自 Twitter/X、Reddit、Hacker News、微博/知乎、技术新闻站
> 生成时间: {{ timestamp .GeneratedAt }}

---

## 📊 数据概览

| 指标 | 数值 |
|------|------|
| 采集条目总数 | {{ .Stats.Total }} |
| 涉及数据源 | {{ joinOr .BySource.Keys "暂无" }} |
| KOL 相关 | {{ .Stats.KOLCount }} 条 |
| 涵盖产品 | {{ joinOr (products .ByProduct) "暂无" }} |

---

## 🔥 今日摘要

{{ digest .Digest }}

---

## 📦 按产品分类
{{ range $product := .ByProduct.Keys }}{{ $items := $.ByProduct.Get $product }}
### {{ productEmoji $product }} {{ productLabel $product }}（{{ len $items }} 条）
{{ range $i, $r := limit $items 10 }}
{{ inc $i }}. {{ if $r.IsKOL }}🌟 **[KOL]** {{ end }}**{{ truncate $r.Title 120 }}**
   - 来源: {{ sourceLabel $r.Source }} | 作者: {{ $r.Author }}{{ if $r.AuthorHandle }} ({{ $r.AuthorHandle }}){{ end }}
   - 互动: 👍 {{ $r.Engagement }} · 💬 {{ $r.CommentsCount }}
{{- if $r.Summary }}
   - 📝 {{ $r.Summary }}
{{- end }}
   - 🔗 [原文链接]({{ $r.URL }})
{{ end }}{{ end }}
---

## 💬 KOL 观点精选
{{ if .KOL }}{{ range $i, $r := limit .KOL 15 }}
### {{ inc $i }}. {{ $r.Author }}{{ if $r.AuthorHandle }} ({{ $r.AuthorHandle }}){{ end }} · {{ tierLabel $r.KOLTier }}

> {{ truncate $r.Content 300 }}

- 来源: {{ sourceLabel $r.Source }} | 互动: 👍 {{ $r.Engagement }} · 💬 {{ $r.CommentsCount }}
- 产品: {{ joinOr $r.Tags "综合" }}
- 🔗 [原文链接]({{ $r.URL }})
{{ end }}{{ else }}
_今日暂无 KOL 相关内容采集到。_
{{ end }}
---

## 📰 按来源详情
{{ range $source := .BySource.Keys }}{{ $items := $.BySource.Get $source }}
### {{ sourceLabel $source }}（{{ len $items }} 条）

{{ range $r := limit $items 8 }}- {{ if $r.IsKOL }}🌟 {{ end }}[{{ truncate $r.Title 80 }}]({{ $r.URL }}) · {{ $r.Author }} · 👍{{ $r.Engagement }}{{ if $r.Summary }} · _{{ $r.Summary }}_{{ end }}
{{ end }}{{ end }}
---

## 📈 统计信息

### 产品提及频次

| 产品 | 提及次数 | 平均互动量 |
|------|----------|------------|
{{ range $product := .ByProduct.Keys }}{{ $items := $.ByProduct.Get $product }}| {{ productLabel $product }} | {{ len $items }} | {{ avgEngagement $items }} |
{{ end }}
### 来源分布

| 来源 | 条目数 |
|------|--------|
{{ range $source := .BySource.Keys }}| {{ sourceLabel $source }} | {{ len ($.BySource.Get $source) }} |
{{ end }}
---

<sub>📌 由 news-comb 自动生成 | 数据截止: {{ .Date }}</sub>
`

var markdownFuncs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04 UTC")
	},
	"digest": func(digest string) string {
		if digest == "" {
			return noDigestText
		}
		return digest
	},
	"products": func(groups *record.Groups) []string {
		var names []string
		for _, name := range groups.Keys() {
			if name != record.Unclassified {
				names = append(names, name)
			}
		}
		return names
	},
	"limit": func(records []record.Record, n int) []record.Record {
		if len(records) > n {
			return records[:n]
		}
		return records
	},
	"inc": func(i int) int {
		return i + 1
	},
	"avgEngagement": func(records []record.Record) int {
		if len(records) == 0 {
			return 0
		}
		total := 0
		for _, r := range records {
			total += r.Engagement
		}
		return int(math.Round(float64(total) / float64(len(records))))
	},
	"sourceLabel": func(source any) string {
		return sourceLabel(fmt.Sprint(source))
	},
	"productEmoji": productEmoji,
	"productLabel": productLabel,
	"tierLabel":    tierLabel,
	"truncate":     truncate,
	"joinOr":       joinOr,
}

var reportTemplate = template.Must(template.New("report").Funcs(markdownFuncs).Parse(markdownTemplate))

// MarkdownWriter writes the daily report to <dir>/<date>.md
type MarkdownWriter struct {
	dir string
}

var _ Writer = (*MarkdownWriter)(nil)

func NewMarkdownWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{dir: dir}
}

func (w *MarkdownWriter) Format() string {
	return "markdown"
}

func (w *MarkdownWriter) Render(in Input) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, in); err != nil {
		return nil, fmt.Errorf("failed to render markdown report: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *MarkdownWriter) Write(in Input) (string, error) {
	data, err := w.Render(in)
	if err != nil {
		return "", err
	}

	path, err := writeFile(w.dir, in.Date+".md", data)
	if err != nil {
		return "", err
	}

	slog.Info("Report saved", "format", w.Format(), "path", path, "items", len(in.Records))

	return path, nil
}
