package splunk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"splunk-mcp/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSplunk is a minimal in-memory stand-in for the Splunk management
// API: one search job at a time, configurable readiness and results.
type fakeSplunk struct {
	t *testing.T

	statusPolls    atomic.Int64
	pollsUntilDone int64
	results        []map[string]any
	jobFailed      bool

	lastSearch   string
	lastEarliest string
	lastLatest   string
	lastAuth     string
	deleted      atomic.Bool
}

func (f *fakeSplunk) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /services/search/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		f.lastSearch = r.PostForm.Get("search")
		f.lastEarliest = r.PostForm.Get("earliest_time")
		f.lastLatest = r.PostForm.Get("latest_time")
		f.lastAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"sid":"job-1"}`)
	})

	mux.HandleFunc("GET /services/search/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		done := f.statusPolls.Add(1) > f.pollsUntilDone
		json.NewEncoder(w).Encode(map[string]any{
			"entry": []map[string]any{{
				"content": map[string]any{
					"isDone":        done && !f.jobFailed,
					"isFailed":      f.jobFailed,
					"dispatchState": "RUNNING",
					"messages": []map[string]any{
						{"type": "FATAL", "text": "Unknown search command 'frobnicate'."},
					},
				},
			}},
		})
	})

	mux.HandleFunc("GET /services/search/jobs/job-1/results", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": f.results})
	})

	mux.HandleFunc("DELETE /services/search/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		f.deleted.Store(true)
	})

	mux.HandleFunc("GET /services/data/indexes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"entry": []map[string]any{
				{"name": "main", "content": map[string]any{"totalEventCount": 1200, "currentDBSizeMB": 64}},
				{"name": "web_access", "content": map[string]any{"totalEventCount": 90, "currentDBSizeMB": 2}},
				{"name": "_internal", "content": map[string]any{"totalEventCount": 5000, "currentDBSizeMB": 128, "disabled": true}},
			},
		})
	})

	mux.HandleFunc("GET /services/server/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"entry": []map[string]any{{
				"content": map[string]any{"version": "9.2.1", "build": "abc123", "serverName": "splunk-test"},
			}},
		})
	})

	return mux
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(models.Config{
		BaseURL:   baseURL,
		AuthToken: "test-token",
		VerifySSL: true,
	}, zerolog.Nop())
	c.jobPollInterval = 10 * time.Millisecond
	return c
}

func TestSearchJobLifecycle(t *testing.T) {
	fake := &fakeSplunk{
		t:              t,
		pollsUntilDone: 2,
		results: []map[string]any{
			{"_raw": "error one", "host": "web01"},
			{"_raw": "error two", "host": "web02"},
		},
	}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	events, err := client.Search(context.Background(), "index=main error", "-24h", "now", 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "error one", events[0]["_raw"])

	// search prefix is added, time window and auth are forwarded
	assert.Equal(t, "search index=main error", fake.lastSearch)
	assert.Equal(t, "-24h", fake.lastEarliest)
	assert.Equal(t, "now", fake.lastLatest)
	assert.Equal(t, "Bearer test-token", fake.lastAuth)

	// job needed more than one status poll and was cleaned up after
	assert.GreaterOrEqual(t, fake.statusPolls.Load(), int64(3))
	assert.Eventually(t, fake.deleted.Load, time.Second, 10*time.Millisecond)
}

func TestExecuteSearchFormatsWindow(t *testing.T) {
	fake := &fakeSplunk{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	earliest := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	latest := earliest.Add(time.Minute)

	_, err := client.ExecuteSearch(context.Background(), "index=main", earliest, latest, 10)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-24T10:00:00Z", fake.lastEarliest)
	assert.Equal(t, "2026-08-24T10:01:00Z", fake.lastLatest)
}

func TestSearchFailedJob(t *testing.T) {
	fake := &fakeSplunk{t: t, jobFailed: true}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Search(context.Background(), "| frobnicate", "-1h", "now", 10)
	require.ErrorIs(t, err, ErrSearchFailed)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestSearchUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"messages":[{"type":"WARN","text":"call not properly authenticated"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.Search(context.Background(), "index=main", "-1h", "now", 10)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSearchContextTimeout(t *testing.T) {
	// Job never reports done; the caller's deadline must end the wait.
	fake := &fakeSplunk{t: t, pollsUntilDone: 1 << 30}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "index=main", "-1h", "now", 10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Eventually(t, fake.deleted.Load, time.Second, 10*time.Millisecond)
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"index=main error", "search index=main error"},
		{"search index=main", "search index=main"},
		{"Search index=main", "Search index=main"},
		{"| tstats count where index=main", "| tstats count where index=main"},
		{"  index=main  ", "search index=main"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeQuery(tt.in), "input %q", tt.in)
	}
}

func TestListIndexes(t *testing.T) {
	fake := &fakeSplunk{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	all, err := client.ListIndexes(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "main", all[0].Name)
	assert.Equal(t, int64(1200), all[0].TotalEventCount)
	assert.True(t, all[2].Disabled)

	filtered, err := client.ListIndexes(context.Background(), "WEB")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "web_access", filtered[0].Name)
}

func TestGetServerInfo(t *testing.T) {
	fake := &fakeSplunk{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	info, err := client.GetServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "9.2.1", info.Version)
	assert.Equal(t, "splunk-test", info.ServerName)
}

func TestBasicAuthFallback(t *testing.T) {
	fake := &fakeSplunk{t: t}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := NewClient(models.Config{
		BaseURL:  srv.URL,
		Username: "admin",
		Password: "changeme",
	}, zerolog.Nop())
	client.jobPollInterval = 10 * time.Millisecond

	_, err := client.Search(context.Background(), "index=main", "-1h", "now", 10)
	require.NoError(t, err)
	// base64("admin:changeme")
	assert.Equal(t, "Basic YWRtaW46Y2hhbmdlbWU=", fake.lastAuth)
}
