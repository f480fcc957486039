package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/news-comb/app/record"
)

func TestParseWeiboTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input    string
		expected time.Time
	}{
		{"", now},
		{"刚刚", now},
		{"5分钟前", now.Add(-5 * time.Minute)},
		{"3小时前", now.Add(-3 * time.Hour)},
		{"今天 10:30", time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)},
		{"昨天 23:15", time.Date(2025, 3, 9, 15, 15, 0, 0, time.UTC)},
		{"2024-12-25", time.Date(2024, 12, 24, 16, 0, 0, 0, time.UTC)},
		{"03-08", time.Date(2025, 3, 7, 16, 0, 0, 0, time.UTC)},
		{"Sat Mar 08 10:00:00 +0800 2025", time.Date(2025, 3, 8, 2, 0, 0, 0, time.UTC)},
		{"unknown", now},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseWeiboTime(tt.input, now)
			if !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
			if got.Location() != time.UTC {
				t.Errorf("Expected UTC result, got %v", got.Location())
			}
		})
	}
}

func TestWeiboZhihu_Collect(t *testing.T) {
	t.Parallel()

	created := time.Now().Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/weibo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://m.weibo.cn/" {
			t.Errorf("Expected weibo referer, got %s", r.Header.Get("Referer"))
		}
		containerID := r.URL.Query().Get("containerid")
		if strings.HasPrefix(containerID, "107603") {
			json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"cards": []map[string]any{
				{"card_type": 9, "mblog": map[string]any{"id": "K1", "text": "试用了 Cursor", "created_at": "刚刚", "attitudes_count": 1}},
			}}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"cards": []map[string]any{
			{"card_type": 9, "mblog": map[string]any{
				"id": "W1", "text": "<a href='#'>Claude</a> 新版本发布了", "created_at": "5分钟前",
				"attitudes_count": 60, "reposts_count": 10, "comments_count": 3,
				"user": map[string]any{"id": 777, "screen_name": "路人"},
			}},
			{"card_type": 9, "mblog": map[string]any{"id": "W2", "text": "Claude 一般", "created_at": "刚刚", "attitudes_count": 1}},
			{"card_type": 11, "mblog": map[string]any{"id": "W3", "text": "Claude card group"}},
		}}})
	})
	mux.HandleFunc("/zhihu", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"type": "answer", "object": map[string]any{
				"id": 55, "excerpt": "Claude 写代码很强", "voteup_count": 120, "comment_count": 8, "created_time": created,
				"question": map[string]any{"id": 44, "name": "如何评价 Claude？"},
				"author":   map[string]any{"name": "知名答主"},
			}},
			{"type": "article", "object": map[string]any{
				"id": 66, "title": "Cursor 使用体验", "excerpt": "很好用", "voteup_count": 3, "created_time": created,
			}},
			{"type": "topic", "object": map[string]any{"id": 1, "title": "Claude"}},
		}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	collector := NewWeiboZhihu(testPolicy(), testFetcher(server), WeiboZhihuConfig{
		WeiboKOLs:          []KOL{{Name: "宝玉", UID: "123", Tier: "A"}},
		ZhihuKOLs:          []KOL{{Name: "知名答主", Tier: "S"}},
		WeiboMinEngagement: 50,
		ZhihuMinEngagement: 10,
		WeiboURL:           server.URL + "/weibo",
		ZhihuURL:           server.URL + "/zhihu",
	})

	records := collector.Collect(context.Background())

	if collector.SourceName() != "weibo_zhihu" {
		t.Errorf("Expected source name weibo_zhihu, got %s", collector.SourceName())
	}

	byURL := make(map[string]record.Record)
	for _, r := range records {
		byURL[r.URL] = r
	}
	if len(byURL) != 3 {
		t.Fatalf("Expected 3 records, got %d: %v", len(records), records)
	}

	weibo, ok := byURL["https://m.weibo.cn/detail/W1"]
	if !ok {
		t.Fatalf("Expected weibo search record")
	}
	if weibo.Source != record.SourceWeibo || weibo.Engagement != 70 || weibo.AuthorHandle != "uid:777" {
		t.Errorf("Unexpected weibo record: %+v", weibo)
	}
	if weibo.Title != "Claude 新版本发布了" {
		t.Errorf("Expected HTML stripped title, got %q", weibo.Title)
	}

	kol, ok := byURL["https://m.weibo.cn/detail/K1"]
	if !ok || !kol.IsKOL || kol.KOLTier != "A" || kol.Author != "宝玉" {
		t.Errorf("Expected weibo KOL record, got %+v", kol)
	}

	answer, ok := byURL["https://www.zhihu.com/question/44/answer/55"]
	if !ok {
		t.Fatalf("Expected zhihu answer record")
	}
	if answer.Source != record.SourceZhihu || answer.Title != "如何评价 Claude？" || answer.KOLTier != "S" {
		t.Errorf("Unexpected zhihu record: %+v", answer)
	}
}
