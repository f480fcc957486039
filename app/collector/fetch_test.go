package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestFetcher_GetSendsHeaders(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	header := http.Header{}
	header.Add("Accept", "application/json")
	header.Add("Accept", "text/plain")
	header.Set("X-Token", "secret")

	data, err := testFetcher(server).Get(context.Background(), server.URL, header)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "ok" {
		t.Errorf("Expected body 'ok', got %q", data)
	}

	received := <-headers

	if got := received.Values("Accept"); !slices.Equal(got, []string{"application/json", "text/plain"}) {
		t.Errorf("Expected both Accept values, got %v", got)
	}
	if got := received.Get("X-Token"); got != "secret" {
		t.Errorf("Expected X-Token 'secret', got %q", got)
	}
	if got := received.Get("User-Agent"); got != "test-agent" {
		t.Errorf("Expected default user agent, got %q", got)
	}
}

func TestFetcher_HeaderOverridesUserAgent(t *testing.T) {
	t.Parallel()

	agentsCh := make(chan []string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentsCh <- r.Header.Values("User-Agent")
	}))
	defer server.Close()

	header := http.Header{}
	header.Set("User-Agent", "browser")

	if _, err := testFetcher(server).Get(context.Background(), server.URL, header); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if agents := <-agentsCh; !slices.Equal(agents, []string{"browser"}) {
		t.Errorf("Expected a single overridden user agent, got %v", agents)
	}
}

func TestFetcher_GetHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := testFetcher(server).Get(context.Background(), server.URL, nil); err == nil {
		t.Errorf("Expected error for 502 response")
	}
}
