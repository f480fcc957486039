package main

import (
	"log/slog"

	"github.com/lysyi3m/news-comb/app/cfg"
	"github.com/lysyi3m/news-comb/app/collector"
	"github.com/lysyi3m/news-comb/app/record"
)

// buildCollectors constructs the selected adapters in the order given.
// Unknown source names are logged and skipped.
func buildCollectors(appCfg *cfg.Cfg, settings *cfg.Settings, kols *cfg.KOLList, fetcher *collector.Fetcher) []collector.Collector {
	matcher := record.NewMatcher(settings.Products)
	policy := newPolicy(matcher, appCfg, settings)
	minEngagement := settings.Collection.MinEngagement

	var collectors []collector.Collector
	for _, name := range appCfg.Sources {
		switch name {
		case cfg.SourceHackerNews:
			collectors = append(collectors, collector.NewHackerNews(policy, fetcher, collector.HackerNewsConfig{
				MinScore:   kols.HackerNews.MinScore,
				SearchTags: kols.HackerNews.SearchTags,
			}))
		case cfg.SourceReddit:
			collectors = append(collectors, collector.NewReddit(policy.WithMinEngagement(minEngagement.Reddit), fetcher, collector.RedditConfig{
				ClientID:     appCfg.Secrets.RedditClientID,
				ClientSecret: appCfg.Secrets.RedditClientSecret,
				UserAgent:    appCfg.Secrets.RedditUserAgent,
				Subreddits:   kols.Reddit.Subreddits,
			}))
		case cfg.SourceTwitter:
			collectors = append(collectors, collector.NewTwitter(policy.WithMinEngagement(minEngagement.Twitter), fetcher, collector.TwitterConfig{
				BearerToken: appCfg.Secrets.TwitterBearerToken,
				KOLs:        kols.Twitter,
			}))
		case cfg.SourceWeiboZhihu:
			collectors = append(collectors, collector.NewWeiboZhihu(policy, fetcher, collector.WeiboZhihuConfig{
				WeiboCookie:        appCfg.Secrets.WeiboCookie,
				ZhihuCookie:        appCfg.Secrets.ZhihuCookie,
				WeiboKOLs:          kols.Weibo,
				ZhihuKOLs:          kols.Zhihu,
				ZhihuTopics:        kols.ZhihuTopics,
				WeiboMinEngagement: minEngagement.Weibo,
				ZhihuMinEngagement: minEngagement.Zhihu,
			}))
		case cfg.SourceTechNews:
			collectors = append(collectors, collector.NewTechNews(policy, fetcher, collector.TechNewsConfig{
				Sources: kols.TechNews.Sources,
			}))
		default:
			slog.Warn("Unknown source, skipping", "source", name, "available", cfg.AllSources)
		}
	}
	return collectors
}
