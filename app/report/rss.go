package report

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

type GeneratorConfig struct {
	Title    string
	Link     string
	SelfLink string
	Version  string
}

// Generator renders a report input as an RSS 2.0 channel. The digest, when
// present, becomes the first item.
type Generator struct {
	cfg GeneratorConfig
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	cfg.Title = cmp.Or(cfg.Title, "AI 编程工具日报")
	cfg.Version = cmp.Or(cfg.Version, "dev")
	return &Generator{cfg: cfg}
}

func (g *Generator) Run(in Input) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.cfg.Title, 4)
	g.writeElement(&buf, "link", g.cfg.Link, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Tracked product mentions for %s (%d items)", in.Date, len(in.Records)), 4)

	if g.cfg.SelfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(g.cfg.SelfLink)))
	}

	generatedAt := cmp.Or(in.GeneratedAt, time.Now().UTC())
	g.writeElement(&buf, "pubDate", generatedAt.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "lastBuildDate", generatedAt.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("news-comb/%s", g.cfg.Version), 4)
	g.writeElement(&buf, "language", "zh-cn", 4)

	if in.Digest != "" {
		g.writeDigest(&buf, in, generatedAt)
	}

	for _, r := range in.Records {
		g.writeItem(&buf, r)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeDigest(buf *bytes.Buffer, in Input, generatedAt time.Time) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte("news-comb:digest:"+in.Date))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", fmt.Sprintf("%s %s", g.cfg.Title, in.Date), 6)
	g.writeElement(buf, "description", truncate(in.Digest, 500), 6)
	g.writeCDATA(buf, "content:encoded", in.Digest, 6)
	g.writeElement(buf, "pubDate", generatedAt.Format(time.RFC1123Z), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeItem(buf *bytes.Buffer, r record.Record) {
	buf.WriteString("    <item>\n")

	buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", g.isURL(r.URL)))
	xml.EscapeText(buf, []byte(r.URL))
	buf.WriteString("</guid>\n")

	title := r.Title
	if r.IsKOL {
		title = "[KOL] " + title
	}
	g.writeElement(buf, "title", title, 6)
	g.writeElement(buf, "link", r.URL, 6)

	g.writeElement(buf, "description", cmp.Or(r.Summary, truncate(r.Content, 300), "No description available"), 6)

	if r.Content != "" && r.Summary != "" {
		g.writeCDATA(buf, "content:encoded", r.Content, 6)
	}

	g.writeElement(buf, "pubDate", r.PublishedAt.Format(time.RFC1123Z), 6)

	author := r.Author
	if r.AuthorHandle != "" {
		author = fmt.Sprintf("%s (%s)", cmp.Or(r.Author, r.AuthorHandle), r.AuthorHandle)
	}
	g.writeElement(buf, "author", author, 6)

	for _, tag := range r.Tags {
		g.writeElement(buf, "category", tag, 6)
	}
	g.writeElement(buf, "category", sourceLabel(string(r.Source)), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *Generator) writeCDATA(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<" + tag + "><![CDATA[")
	buf.WriteString(strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>"))
	buf.WriteString("]]></" + tag + ">\n")
}

func (g *Generator) isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// RSSWriter stores the rendered channel as <dir>/<date>.xml
type RSSWriter struct {
	dir       string
	generator *Generator
}

var _ Writer = (*RSSWriter)(nil)

func NewRSSWriter(dir string, generator *Generator) *RSSWriter {
	return &RSSWriter{dir: dir, generator: generator}
}

func (w *RSSWriter) Format() string {
	return "rss"
}

func (w *RSSWriter) Write(in Input) (string, error) {
	feed, err := w.generator.Run(in)
	if err != nil {
		return "", fmt.Errorf("failed to generate RSS: %w", err)
	}

	path, err := writeFile(w.dir, in.Date+".xml", []byte(feed))
	if err != nil {
		return "", err
	}

	slog.Info("Report saved", "format", w.Format(), "path", path, "items", len(in.Records))

	return path, nil
}
