package summarizer

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/news-comb/app/record"
)

const dailyDigestPrompt = `你是一个 AI 编程工具行业分析师。请根据以下从社交媒体和技术新闻采集到的信息，生成一份结构化的中文日报摘要。

## 采集到的信息

%s

## 要求

请生成以下内容（使用中文）：

### 1. 今日热点（2-3条最重要的新闻/动态）
- 每条热点用 1-2 句话概括
- 标注相关产品和来源

### 2. 产品动态总结
针对每个被提及的产品，总结：
- 新功能/更新
- 用户反馈和评价
- 已知问题或争议

### 3. KOL 核心观点
提炼 KOL（标记为 [KOL] 的条目）的关键观点，包括：
- 谁说了什么（简短引述）
- 观点的核心立场

### 4. 趋势分析
基于所有采集的信息，分析：
- 行业趋势信号
- 值得关注的变化
- 对开发者的建议

### 5. 情感分析概览
对主要产品的舆情风向做简短判断（正面/中性/负面）

注意：
- 保持客观中立
- 用中文输出
- 不要编造信息，仅基于提供的数据分析
- 如果某个维度没有相关信息，标注"暂无相关数据"
`

const (
	maxDigestItems = 50

	batchTitleLimit    = 200
	batchContentLimit  = 300
	digestContentLimit = 300
)

func buildBatchPrompt(batch []*record.Record) string {
	var b strings.Builder
	b.WriteString("请为以下每条内容生成一句话中文摘要（不超过50字）和情感倾向判断。\n\n")

	for i, r := range batch {
		fmt.Fprintf(&b, "## 条目 %d\n", i+1)
		fmt.Fprintf(&b, "标题: %s\n", prefix(r.Title, batchTitleLimit))
		fmt.Fprintf(&b, "内容: %s\n", prefix(r.Content, batchContentLimit))
		fmt.Fprintf(&b, "来源: %s\n\n", r.Source)
	}

	b.WriteString("\n请用 JSON 数组格式回复，每个元素包含 index, summary, sentiment 字段。\n")
	b.WriteString(`例如: [{"index": 1, "summary": "摘要", "sentiment": "positive"}]` + "\n")
	b.WriteString("只返回 JSON，不要其他文本。")

	return b.String()
}

func buildDigestPrompt(records []record.Record) string {
	if len(records) > maxDigestItems {
		records = records[:maxDigestItems]
	}

	items := make([]string, 0, len(records))
	for i, r := range records {
		kol := ""
		if r.IsKOL {
			kol = " [KOL]"
		}
		products := "未分类"
		if len(r.Tags) > 0 {
			products = strings.Join(r.Tags, ", ")
		}
		items = append(items, fmt.Sprintf(
			"### %d. [%s]%s %s\n- 作者: %s (%s)\n- 产品: %s\n- 互动: 👍%d 💬%d\n- 链接: %s\n- 内容摘要: %s\n",
			i+1, r.Source, kol, r.Title,
			r.Author, r.AuthorHandle,
			products,
			r.Engagement, r.CommentsCount,
			r.URL,
			prefix(r.Content, digestContentLimit),
		))
	}

	return fmt.Sprintf(dailyDigestPrompt, strings.Join(items, "\n"))
}

// prefix returns at most n runes of s
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
