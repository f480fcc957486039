package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	WeiboAPIURL = "https://m.weibo.cn/api/container/getIndex"
	ZhihuAPIURL = "https://www.zhihu.com/api/v4/search_v3"

	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	weiboCardPost    = 9
)

var beijing = time.FixedZone("CST", 8*3600)

type WeiboZhihuConfig struct {
	WeiboCookie string
	ZhihuCookie string
	WeiboKOLs   []KOL
	ZhihuKOLs   []KOL
	ZhihuTopics []string

	WeiboMinEngagement int
	ZhihuMinEngagement int

	WeiboURL string
	ZhihuURL string
}

type WeiboZhihu struct {
	policy  Policy
	fetcher *Fetcher
	config  WeiboZhihuConfig
	now     func() time.Time
}

type weiboResponse struct {
	Data struct {
		Cards []struct {
			CardType int       `json:"card_type"`
			Mblog    weiboBlog `json:"mblog"`
		} `json:"cards"`
	} `json:"data"`
}

type weiboBlog struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
	RepostsCount   int    `json:"reposts_count"`
	CommentsCount  int    `json:"comments_count"`
	AttitudesCount int    `json:"attitudes_count"`
	User           struct {
		ID         json.Number `json:"id"`
		ScreenName string      `json:"screen_name"`
	} `json:"user"`
}

type zhihuResponse struct {
	Data []struct {
		Type   string      `json:"type"`
		Object zhihuObject `json:"object"`
	} `json:"data"`
}

type zhihuObject struct {
	ID       json.Number `json:"id"`
	Type     string      `json:"type"`
	Title    string      `json:"title"`
	Excerpt  string      `json:"excerpt"`
	Content  string      `json:"content"`
	URL      string      `json:"url"`
	Question struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"question"`
	Author struct {
		Name string `json:"name"`
	} `json:"author"`
	VoteupCount  int   `json:"voteup_count"`
	CommentCount int   `json:"comment_count"`
	CreatedTime  int64 `json:"created_time"`
	Created      int64 `json:"created"`
}

func NewWeiboZhihu(policy Policy, fetcher *Fetcher, config WeiboZhihuConfig) *WeiboZhihu {
	if config.WeiboURL == "" {
		config.WeiboURL = WeiboAPIURL
	}
	if config.ZhihuURL == "" {
		config.ZhihuURL = ZhihuAPIURL
	}
	return &WeiboZhihu{
		policy:  policy,
		fetcher: fetcher,
		config:  config,
		now:     time.Now,
	}
}

func (w *WeiboZhihu) SourceName() string {
	return "weibo_zhihu"
}

func (w *WeiboZhihu) Collect(ctx context.Context) []record.Record {
	records := w.collectWeibo(ctx)
	records = append(records, w.collectZhihu(ctx)...)
	return w.policy.Finalize(records)
}

func (w *WeiboZhihu) weiboHeader() http.Header {
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	header.Set("Accept", "application/json, text/plain, */*")
	header.Set("Referer", "https://m.weibo.cn/")
	if w.config.WeiboCookie != "" {
		header.Set("Cookie", w.config.WeiboCookie)
	}
	return header
}

func (w *WeiboZhihu) collectWeibo(ctx context.Context) []record.Record {
	if w.config.WeiboCookie == "" {
		slog.Info("WEIBO_COOKIE not configured, using public Weibo search", "source", w.SourceName())
	}

	header := w.weiboHeader()
	policy := w.policy.WithMinEngagement(w.config.WeiboMinEngagement)

	var records []record.Record
	for _, keyword := range limitKeywords(w.policy.Keywords(), 8) {
		params := url.Values{}
		params.Set("containerid", "100103type=1&q="+keyword)
		params.Set("page_type", "searchall")

		blogs, err := w.fetchWeibo(ctx, params, header)
		if err != nil {
			slog.Warn("Weibo search failed", "source", w.SourceName(), "keyword", keyword, "error", err)
			continue
		}
		for _, blog := range blogs {
			r := w.weiboRecord(blog, blog.User.ScreenName, "uid:"+blog.User.ID.String())
			if kol, ok := findKOLByName(w.config.WeiboKOLs, blog.User.ScreenName); ok {
				kol.apply(&r)
			}
			if policy.Keep(r) {
				records = append(records, r)
			}
		}
	}

	for _, kol := range w.config.WeiboKOLs {
		if kol.UID == "" {
			continue
		}

		params := url.Values{}
		params.Set("containerid", "107603"+kol.UID)
		params.Set("page", "1")

		blogs, err := w.fetchWeibo(ctx, params, header)
		if err != nil {
			slog.Warn("Weibo KOL timeline failed", "source", w.SourceName(), "kol", kol.Name, "error", err)
			continue
		}
		for _, blog := range blogs {
			r := w.weiboRecord(blog, kol.Name, "uid:"+kol.UID)
			kol.apply(&r)
			if policy.KeepKOLPost(r) {
				records = append(records, r)
			}
		}
	}

	return records
}

func (w *WeiboZhihu) fetchWeibo(ctx context.Context, params url.Values, header http.Header) ([]weiboBlog, error) {
	var resp weiboResponse
	if err := w.fetcher.GetJSON(ctx, withQuery(w.config.WeiboURL, params), header, &resp); err != nil {
		return nil, err
	}

	var blogs []weiboBlog
	for _, card := range resp.Data.Cards {
		if card.CardType == weiboCardPost {
			blogs = append(blogs, card.Mblog)
		}
	}
	return blogs, nil
}

func (w *WeiboZhihu) weiboRecord(blog weiboBlog, author, handle string) record.Record {
	text := StripHTML(blog.Text)
	link := "https://m.weibo.cn/detail/" + blog.ID

	r := record.New(record.SourceWeibo, link, truncate(text, 100), ParseWeiboTime(blog.CreatedAt, w.now()))
	r.Content = truncate(text, 2000)
	r.Author = author
	r.AuthorHandle = handle
	r.Engagement = blog.AttitudesCount + blog.RepostsCount
	r.CommentsCount = blog.CommentsCount
	r.Language = "zh"

	return r
}

func (w *WeiboZhihu) collectZhihu(ctx context.Context) []record.Record {
	header := http.Header{}
	header.Set("User-Agent", browserUserAgent)
	header.Set("Referer", "https://www.zhihu.com/")
	if w.config.ZhihuCookie != "" {
		header.Set("Cookie", w.config.ZhihuCookie)
	}

	policy := w.policy.WithMinEngagement(w.config.ZhihuMinEngagement)

	queries := append(append([]string{}, w.config.ZhihuTopics...), limitKeywords(w.policy.Keywords(), 5)...)
	queries = limitKeywords(queries, 10)

	var records []record.Record
	for _, query := range queries {
		params := url.Values{}
		params.Set("type", "content")
		params.Set("q", query)
		params.Set("limit", "10")
		params.Set("offset", "0")

		var resp zhihuResponse
		if err := w.fetcher.GetJSON(ctx, withQuery(w.config.ZhihuURL, params), header, &resp); err != nil {
			slog.Warn("Zhihu search failed", "source", w.SourceName(), "query", query, "error", err)
			continue
		}

		for _, result := range resp.Data {
			r, ok := w.zhihuRecord(result.Type, result.Object)
			if !ok {
				continue
			}
			if policy.Keep(r) {
				records = append(records, r)
			}
		}
	}

	return records
}

func (w *WeiboZhihu) zhihuRecord(kind string, obj zhihuObject) (record.Record, bool) {
	var link string
	switch kind {
	case "answer":
		link = fmt.Sprintf("https://www.zhihu.com/question/%s/answer/%s", obj.Question.ID, obj.ID)
	case "article":
		link = "https://zhuanlan.zhihu.com/p/" + obj.ID.String()
	case "zvideo":
		link = obj.URL
	default:
		return record.Record{}, false
	}

	title := StripHTML(obj.Question.Name)
	if title == "" {
		title = StripHTML(obj.Title)
	}
	content := StripHTML(obj.Excerpt)
	if content == "" {
		content = truncate(StripHTML(obj.Content), 500)
	}
	if title == "" {
		title = truncate(content, 100)
	}

	var publishedAt time.Time
	if created := max(obj.CreatedTime, obj.Created); created > 0 {
		publishedAt = time.Unix(created, 0)
	}

	r := record.New(record.SourceZhihu, link, truncate(title, 200), publishedAt)
	r.Content = truncate(content, 2000)
	r.Author = obj.Author.Name
	r.Engagement = obj.VoteupCount
	r.CommentsCount = obj.CommentCount
	r.Language = "zh"
	if kol, ok := findKOLByName(w.config.ZhihuKOLs, obj.Author.Name); ok {
		kol.apply(&r)
	}

	return r, true
}

var (
	minutesAgoRe = regexp.MustCompile(`(\d+)\s*分钟前`)
	hoursAgoRe   = regexp.MustCompile(`(\d+)\s*小时前`)
	todayRe      = regexp.MustCompile(`今天\s*(\d{1,2}):(\d{2})`)
	yesterdayRe  = regexp.MustCompile(`昨天\s*(\d{1,2}):(\d{2})`)
	fullDateRe   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	shortDateRe  = regexp.MustCompile(`(\d{1,2})-(\d{1,2})`)
)

// ParseWeiboTime understands the relative and absolute timestamps Weibo
// renders. Wall-clock forms are read in Beijing time. Anything else maps to
// now.
func ParseWeiboTime(value string, now time.Time) time.Time {
	now = now.In(beijing)

	if value == "" || value == "刚刚" {
		return now.UTC()
	}
	if t, err := time.Parse(time.RubyDate, value); err == nil {
		return t.UTC()
	}
	if m := minutesAgoRe.FindStringSubmatch(value); m != nil {
		return now.Add(-time.Duration(atoi(m[1])) * time.Minute).UTC()
	}
	if m := hoursAgoRe.FindStringSubmatch(value); m != nil {
		return now.Add(-time.Duration(atoi(m[1])) * time.Hour).UTC()
	}
	if m := todayRe.FindStringSubmatch(value); m != nil {
		return clock(now, atoi(m[1]), atoi(m[2])).UTC()
	}
	if m := yesterdayRe.FindStringSubmatch(value); m != nil {
		return clock(now.AddDate(0, 0, -1), atoi(m[1]), atoi(m[2])).UTC()
	}
	if m := fullDateRe.FindStringSubmatch(value); m != nil {
		return time.Date(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), 0, 0, 0, 0, beijing).UTC()
	}
	if m := shortDateRe.FindStringSubmatch(value); m != nil {
		return time.Date(now.Year(), time.Month(atoi(m[1])), atoi(m[2]), 0, 0, 0, 0, beijing).UTC()
	}
	return now.UTC()
}

func clock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
