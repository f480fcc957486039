package collector

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

const (
	RedditAuthURL   = "https://www.reddit.com/api/v1/access_token"
	RedditAPIURL    = "https://oauth.reddit.com"
	RedditPublicURL = "https://www.reddit.com"
)

type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Subreddits   []string

	AuthURL   string
	APIURL    string
	PublicURL string
}

type Reddit struct {
	policy  Policy
	fetcher *Fetcher
	config  RedditConfig
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Author      string  `json:"author"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type redditToken struct {
	AccessToken string `json:"access_token"`
}

func NewReddit(policy Policy, fetcher *Fetcher, config RedditConfig) *Reddit {
	if config.AuthURL == "" {
		config.AuthURL = RedditAuthURL
	}
	if config.APIURL == "" {
		config.APIURL = RedditAPIURL
	}
	if config.PublicURL == "" {
		config.PublicURL = RedditPublicURL
	}
	return &Reddit{
		policy:  policy,
		fetcher: fetcher,
		config:  config,
	}
}

func (r *Reddit) SourceName() string {
	return string(record.SourceReddit)
}

func (r *Reddit) Collect(ctx context.Context) []record.Record {
	var records []record.Record

	if r.config.ClientID != "" && r.config.ClientSecret != "" {
		records = r.collectWithAPI(ctx)
	} else {
		slog.Info("Reddit credentials not configured, using public search", "source", r.SourceName())
		records = r.collectPublic(ctx)
	}

	return r.policy.Finalize(records)
}

func (r *Reddit) collectWithAPI(ctx context.Context) []record.Record {
	token, err := r.authenticate(ctx)
	if err != nil {
		slog.Warn("Reddit authentication failed", "source", r.SourceName(), "error", err)
		return nil
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	if r.config.UserAgent != "" {
		header.Set("User-Agent", r.config.UserAgent)
	}

	var records []record.Record
	for _, subreddit := range r.config.Subreddits {
		endpoint := fmt.Sprintf("%s/r/%s/search", r.config.APIURL, subreddit)
		records = append(records, r.searchSubreddit(ctx, endpoint, subreddit, header, limitKeywords(r.policy.Keywords(), 10), "true")...)
	}
	return records
}

func (r *Reddit) collectPublic(ctx context.Context) []record.Record {
	var records []record.Record
	for _, subreddit := range r.config.Subreddits {
		endpoint := fmt.Sprintf("%s/r/%s/search.json", r.config.PublicURL, subreddit)
		records = append(records, r.searchSubreddit(ctx, endpoint, subreddit, nil, limitKeywords(r.policy.Keywords(), 8), "on")...)
	}
	return records
}

func (r *Reddit) authenticate(ctx context.Context) (string, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(r.config.ClientID + ":" + r.config.ClientSecret))

	header := http.Header{}
	header.Set("Authorization", "Basic "+credentials)
	if r.config.UserAgent != "" {
		header.Set("User-Agent", r.config.UserAgent)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	var token redditToken
	if err := r.fetcher.PostForm(ctx, r.config.AuthURL, header, form, &token); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return token.AccessToken, nil
}

func (r *Reddit) searchSubreddit(ctx context.Context, endpoint, subreddit string, header http.Header, keywords []string, restrict string) []record.Record {
	window := "day"
	if r.policy.LookbackDays > 1 {
		window = "week"
	}

	var records []record.Record
	for _, keyword := range keywords {
		params := url.Values{}
		params.Set("q", keyword)
		params.Set("restrict_sr", restrict)
		params.Set("sort", "relevance")
		params.Set("t", window)
		params.Set("limit", "10")

		var listing redditListing
		if err := r.fetcher.GetJSON(ctx, withQuery(endpoint, params), header, &listing); err != nil {
			slog.Warn("Subreddit search failed", "source", r.SourceName(), "subreddit", subreddit, "keyword", keyword, "error", err)
			continue
		}

		for _, child := range listing.Data.Children {
			rec := r.toRecord(child.Data)
			if !r.policy.Keep(rec) {
				continue
			}
			records = append(records, rec)
		}
	}
	return records
}

func (r *Reddit) toRecord(post redditPost) record.Record {
	link := post.URL
	if post.Permalink != "" {
		link = "https://www.reddit.com" + post.Permalink
	}

	var publishedAt time.Time
	if post.CreatedUTC > 0 {
		publishedAt = time.Unix(int64(post.CreatedUTC), 0)
	}

	rec := record.New(record.SourceReddit, link, post.Title, publishedAt)
	rec.Content = post.Title
	if post.Selftext != "" {
		rec.Content = truncate(post.Selftext, 2000)
	}
	rec.Author = post.Author
	rec.AuthorHandle = "u/" + post.Author
	rec.Engagement = post.Ups
	rec.CommentsCount = post.NumComments

	return rec
}

func limitKeywords(keywords []string, n int) []string {
	if len(keywords) > n {
		return keywords[:n]
	}
	return keywords
}
