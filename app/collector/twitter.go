package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	TwitterAPIURL = "https://api.twitter.com/2"

	twitterKeywordGroupSize = 5
	twitterMaxKeywordGroups = 3
	twitterMaxKOLs          = 15
)

type TwitterConfig struct {
	BearerToken string
	KOLs        []KOL
	APIURL      string
}

type Twitter struct {
	policy  Policy
	fetcher *Fetcher
	config  TwitterConfig
}

type tweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	Lang          string `json:"lang"`
	PublicMetrics struct {
		LikeCount  int `json:"like_count"`
		ReplyCount int `json:"reply_count"`
	} `json:"public_metrics"`
}

type twitterUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type tweetsResponse struct {
	Data     []tweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
}

type userResponse struct {
	Data twitterUser `json:"data"`
}

func NewTwitter(policy Policy, fetcher *Fetcher, config TwitterConfig) *Twitter {
	if config.APIURL == "" {
		config.APIURL = TwitterAPIURL
	}
	return &Twitter{
		policy:  policy,
		fetcher: fetcher,
		config:  config,
	}
}

func (t *Twitter) SourceName() string {
	return string(record.SourceTwitter)
}

func (t *Twitter) Collect(ctx context.Context) []record.Record {
	if t.config.BearerToken == "" {
		slog.Warn("TWITTER_BEARER_TOKEN not configured, skipping Twitter",
			"source", t.SourceName(),
			"hint", "request an API v2 bearer token at https://developer.twitter.com/en/portal")
		return []record.Record{}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.config.BearerToken)

	records := t.search(ctx, header)

	kols := t.config.KOLs
	if len(kols) > twitterMaxKOLs {
		kols = kols[:twitterMaxKOLs]
	}
	for _, kol := range kols {
		results, err := t.timeline(ctx, header, kol)
		if err != nil {
			slog.Warn("KOL timeline failed", "source", t.SourceName(), "handle", kol.Handle, "error", err)
			continue
		}
		records = append(records, results...)
	}

	return t.policy.Finalize(records)
}

func (t *Twitter) search(ctx context.Context, header http.Header) []record.Record {
	var records []record.Record
	since := t.policy.Since()

	for _, query := range keywordQueries(t.policy.Keywords()) {
		params := url.Values{}
		params.Set("query", "("+query+") -is:retweet lang:en")
		params.Set("max_results", "20")
		params.Set("start_time", since.Format(time.RFC3339))
		params.Set("tweet.fields", "created_at,public_metrics,author_id,lang")
		params.Set("user.fields", "name,username")
		params.Set("expansions", "author_id")
		params.Set("sort_order", "relevancy")

		var resp tweetsResponse
		if err := t.fetcher.GetJSON(ctx, withQuery(t.config.APIURL+"/tweets/search/recent", params), header, &resp); err != nil {
			slog.Warn("Tweet search failed", "source", t.SourceName(), "query", query, "error", err)
			continue
		}

		users := make(map[string]twitterUser, len(resp.Includes.Users))
		for _, user := range resp.Includes.Users {
			users[user.ID] = user
		}

		for _, tw := range resp.Data {
			user := users[tw.AuthorID]
			r := t.toRecord(tw, user.Username, user.Name)
			if kol, ok := findKOLByHandle(t.config.KOLs, user.Username); ok {
				kol.apply(&r)
			}
			if !t.policy.Keep(r) {
				continue
			}
			records = append(records, r)
		}
	}

	return records
}

func (t *Twitter) timeline(ctx context.Context, header http.Header, kol KOL) ([]record.Record, error) {
	var user userResponse
	if err := t.fetcher.GetJSON(ctx, t.config.APIURL+"/users/by/username/"+url.PathEscape(kol.Handle), header, &user); err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user.Data.ID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("max_results", "10")
	params.Set("start_time", t.policy.Since().Format(time.RFC3339))
	params.Set("tweet.fields", "created_at,public_metrics,lang")
	params.Set("exclude", "retweets")

	var resp tweetsResponse
	if err := t.fetcher.GetJSON(ctx, withQuery(t.config.APIURL+"/users/"+user.Data.ID+"/tweets", params), header, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch tweets: %w", err)
	}

	var records []record.Record
	for _, tw := range resp.Data {
		r := t.toRecord(tw, kol.Handle, kol.Name)
		kol.apply(&r)
		if !t.policy.KeepKOLPost(r) {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (t *Twitter) toRecord(tw tweet, username, name string) record.Record {
	publishedAt, _ := time.Parse(time.RFC3339, tw.CreatedAt)
	link := fmt.Sprintf("https://twitter.com/%s/status/%s", username, tw.ID)

	r := record.New(record.SourceTwitter, link, truncate(tw.Text, 100), publishedAt)
	r.Content = tw.Text
	r.Author = name
	if r.Author == "" {
		r.Author = username
	}
	r.AuthorHandle = "@" + username
	r.Engagement = tw.PublicMetrics.LikeCount
	r.CommentsCount = tw.PublicMetrics.ReplyCount
	r.Language = tw.Lang

	return r
}

// keywordQueries ORs keywords together in groups to save API calls.
func keywordQueries(keywords []string) []string {
	var queries []string
	for i := 0; i < len(keywords) && len(queries) < twitterMaxKeywordGroups; i += twitterKeywordGroupSize {
		end := min(i+twitterKeywordGroupSize, len(keywords))
		quoted := make([]string, 0, end-i)
		for _, kw := range keywords[i:end] {
			quoted = append(quoted, `"`+kw+`"`)
		}
		queries = append(queries, strings.Join(quoted, " OR "))
	}
	return queries
}
