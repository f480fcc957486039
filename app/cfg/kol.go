package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-comb/app/collector"
	"github.com/lysyi3m/news-comb/app/record"
)

const KOLListFile = "kol_list.yaml"

// KOLList holds the per-platform accounts and sources each collector reads.
type KOLList struct {
	Twitter     []collector.KOL `yaml:"twitter"`
	Weibo       []collector.KOL `yaml:"weibo"`
	Zhihu       []collector.KOL `yaml:"zhihu"`
	Reddit      RedditList      `yaml:"reddit"`
	HackerNews  HackerNewsList  `yaml:"hackernews"`
	ZhihuTopics []string        `yaml:"zhihu_topics"`
	TechNews    TechNewsList    `yaml:"tech_news"`
}

type RedditList struct {
	Subreddits []string `yaml:"subreddits"`
}

type HackerNewsList struct {
	MinScore   int      `yaml:"min_score"`
	SearchTags []string `yaml:"search_tags"`
}

type TechNewsList struct {
	Sources []collector.NewsSource `yaml:"sources"`
}

var validTiers = []string{record.TierS, record.TierA, record.TierB}

// LoadKOLList reads kol_list.yaml from dir. A missing file yields an empty
// list with collector defaults applied.
func LoadKOLList(dir string) (*KOLList, error) {
	path := filepath.Join(dir, KOLListFile)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("KOL list not found, using defaults", "path", path)
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	list, err := parseKOLList(data)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}

	if err := validateKOLList(list); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	slog.Debug("KOL list loaded", "path", path, "twitter", len(list.Twitter), "weibo", len(list.Weibo), "zhihu", len(list.Zhihu), "subreddits", len(list.Reddit.Subreddits), "news_sources", len(list.TechNews.Sources))

	return list, nil
}

func parseKOLList(data []byte) (*KOLList, error) {
	var list KOLList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for _, kols := range [][]collector.KOL{list.Twitter, list.Weibo, list.Zhihu} {
		for i := range kols {
			if kols[i].Tier == "" {
				kols[i].Tier = record.TierB
			}
		}
	}

	if list.HackerNews.MinScore == 0 {
		list.HackerNews.MinScore = 10
	}
	if len(list.HackerNews.SearchTags) == 0 {
		list.HackerNews.SearchTags = []string{"story"}
	}

	for i := range list.TechNews.Sources {
		if list.TechNews.Sources[i].Type == "" {
			list.TechNews.Sources[i].Type = collector.NewsSourceRSS
		}
	}

	return &list, nil
}

func validateKOLList(list *KOLList) error {
	if list == nil {
		return fmt.Errorf("KOL list is nil")
	}

	platforms := map[string][]collector.KOL{
		"twitter": list.Twitter,
		"weibo":   list.Weibo,
		"zhihu":   list.Zhihu,
	}

	for platform, kols := range platforms {
		for i, kol := range kols {
			if kol.Name == "" && kol.Handle == "" {
				return fmt.Errorf("%s KOL at index %d must have a name or handle", platform, i)
			}
			if !slices.Contains(validTiers, kol.Tier) {
				return fmt.Errorf("invalid %s KOL tier at index %d: %s", platform, i, kol.Tier)
			}
		}
	}

	for i, kol := range list.Twitter {
		if kol.Handle == "" {
			return fmt.Errorf("twitter KOL at index %d must have a handle", i)
		}
	}

	if list.HackerNews.MinScore < 0 {
		return fmt.Errorf("hackernews min score must be non-negative")
	}

	for i, source := range list.TechNews.Sources {
		if source.Name == "" || source.URL == "" {
			return fmt.Errorf("tech news source at index %d must have a name and URL", i)
		}
		if source.Type != collector.NewsSourceRSS && source.Type != collector.NewsSourceHTML {
			return fmt.Errorf("invalid tech news source type at index %d: %s", i, source.Type)
		}
	}

	return nil
}
