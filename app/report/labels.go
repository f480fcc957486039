package report

import (
	"strings"

	"github.com/lysyi3m/news-comb/app/record"
)

var productEmojis = map[string]string{
	"Claude":            "🟠",
	"GitHub Copilot":    "🔵",
	"Codex":             "🟢",
	"Cursor":            "🟣",
	"Windsurf":          "🩷",
	"Other AI Coding":   "⚪",
	record.Unclassified: "📎",
}

var sourceLabels = map[string]string{
	string(record.SourceHackerNews): "🔶 Hacker News",
	string(record.SourceReddit):     "🟧 Reddit",
	string(record.SourceTwitter):    "🐦 Twitter/X",
	string(record.SourceWeibo):      "🔴 微博",
	string(record.SourceZhihu):      "🔵 知乎",
	string(record.SourceTechNews):   "📰 技术新闻",
	"weibo_zhihu":                   "🇨🇳 微博/知乎",
}

var tierLabels = map[string]string{
	record.TierS: "⭐⭐⭐ 顶级影响力",
	record.TierA: "⭐⭐ 高影响力",
	record.TierB: "⭐ 影响力",
}

func productEmoji(product string) string {
	if emoji, ok := productEmojis[product]; ok {
		return emoji
	}
	return "📦"
}

func sourceLabel(source string) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	return source
}

func tierLabel(tier string) string {
	return tierLabels[tier]
}

// truncate cuts s to n runes and marks the cut with "..."
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func productLabel(product string) string {
	if product == record.Unclassified {
		return "未分类"
	}
	return product
}

func joinOr(values []string, empty string) string {
	if len(values) == 0 {
		return empty
	}
	return strings.Join(values, ", ")
}
