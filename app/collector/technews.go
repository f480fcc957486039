package collector

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	NewsSourceRSS  = "rss"
	NewsSourceHTML = "html"

	maxFeedEntries    = 30
	max36KrArticles   = 20
	minLinkTextLength = 10
)

type NewsSource struct {
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	Type           string `yaml:"type"`
	Language       string `yaml:"language"`
	ExtractContent bool   `yaml:"extract_content"`
}

type TechNewsConfig struct {
	Sources []NewsSource
}

type TechNews struct {
	policy    Policy
	fetcher   *Fetcher
	config    TechNewsConfig
	parser    *gofeed.Parser
	extractor *ContentExtractor
}

var articleClassRe = regexp.MustCompile(`article|item|flow`)
var articlePathRe = regexp.MustCompile(`/p/\d+`)

func NewTechNews(policy Policy, fetcher *Fetcher, config TechNewsConfig) *TechNews {
	return &TechNews{
		policy:    policy,
		fetcher:   fetcher,
		config:    config,
		parser:    gofeed.NewParser(),
		extractor: NewContentExtractor(),
	}
}

func (t *TechNews) SourceName() string {
	return string(record.SourceTechNews)
}

func (t *TechNews) Collect(ctx context.Context) []record.Record {
	var records []record.Record

	for _, source := range t.config.Sources {
		var (
			results []record.Record
			err     error
		)
		if cmp.Or(source.Type, NewsSourceRSS) == NewsSourceRSS {
			results, err = t.collectRSS(ctx, source)
		} else {
			results, err = t.collectHTML(ctx, source)
		}
		if err != nil {
			slog.Warn("News source failed", "source", t.SourceName(), "site", source.Name, "error", err)
			continue
		}

		slog.Debug("News source collected", "source", t.SourceName(), "site", source.Name, "items", len(results))
		records = append(records, results...)
	}

	// newest first so equal engagement keeps recency order
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PublishedAt.After(records[j].PublishedAt)
	})

	return t.policy.Finalize(records)
}

func (t *TechNews) collectRSS(ctx context.Context, source NewsSource) ([]record.Record, error) {
	data, err := t.fetcher.Get(ctx, source.URL, browserHeader())
	if err != nil {
		return nil, err
	}

	feed, err := t.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := feed.Items
	if len(items) > maxFeedEntries {
		items = items[:maxFeedEntries]
	}

	var records []record.Record
	for _, item := range items {
		r := t.feedRecord(item, source)

		if source.ExtractContent && t.policy.Keep(r) {
			t.extract(ctx, &r)
		}
		if !t.policy.Keep(r) {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (t *TechNews) feedRecord(item *gofeed.Item, source NewsSource) record.Record {
	var publishedAt time.Time
	switch {
	case item.PublishedParsed != nil:
		publishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		publishedAt = *item.UpdatedParsed
	}

	content := StripHTML(cmp.Or(item.Content, item.Description))

	r := record.New(record.SourceTechNews, item.Link, strings.TrimSpace(item.Title), publishedAt)
	r.Content = truncate(content, 2000)
	r.Author = source.Name
	if item.Author != nil && item.Author.Name != "" {
		r.Author = item.Author.Name
	}
	r.Language = cmp.Or(source.Language, "en")

	return r
}

func (t *TechNews) extract(ctx context.Context, r *record.Record) {
	page, err := t.fetcher.Get(ctx, r.URL, browserHeader())
	if err != nil {
		slog.Warn("Article fetch failed", "source", t.SourceName(), "url", r.URL, "error", err)
		return
	}

	text, err := t.extractor.Run(page)
	if err != nil {
		slog.Warn("Content extraction failed", "source", t.SourceName(), "url", r.URL, "error", err)
		return
	}
	r.Content = truncate(text, 2000)
}

func (t *TechNews) collectHTML(ctx context.Context, source NewsSource) ([]record.Record, error) {
	data, err := t.fetcher.Get(ctx, source.URL, browserHeader())
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source URL: %w", err)
	}

	var links []*goquery.Selection
	if strings.Contains(source.URL, "36kr") {
		links = find36KrLinks(doc)
	} else {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if len([]rune(strings.TrimSpace(s.Text()))) >= minLinkTextLength {
				links = append(links, s)
			}
		})
	}

	var records []record.Record
	for _, link := range links {
		title := strings.Join(strings.Fields(link.Text()), " ")
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			continue
		}

		resolved, err := base.Parse(href)
		if err != nil {
			continue
		}

		r := record.New(record.SourceTechNews, resolved.String(), truncate(title, 200), time.Time{})
		r.Content = title
		r.Author = source.Name
		r.Language = cmp.Or(source.Language, "zh")

		if !t.policy.Keep(r) {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func find36KrLinks(doc *goquery.Document) []*goquery.Selection {
	var links []*goquery.Selection
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if class, ok := s.Attr("class"); ok && articleClassRe.MatchString(class) {
			links = append(links, s)
		}
	})
	if len(links) == 0 {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, _ := s.Attr("href"); articlePathRe.MatchString(href) {
				links = append(links, s)
			}
		})
	}
	if len(links) > max36KrArticles {
		links = links[:max36KrArticles]
	}
	return links
}

func browserHeader() http.Header {
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	return header
}
