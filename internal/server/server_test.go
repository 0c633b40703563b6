// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-lab/internal/catalog"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

const testPapers = `[
  {"arxiv_id": "2401.00001v1", "title": "Deep Learning for Graphs",
   "authors": ["A. Author"], "abstract": "We study graph neural networks. Graph models are deep.",
   "categories": ["cs.LG"], "published": "2024-01-01T00:00:00Z", "updated": "2024-01-02T00:00:00Z",
   "abstract_stats": {"total_words": 9, "unique_words": 8, "total_sentences": 2, "avg_words_per_sentence": 4.5, "avg_word_length": 5.1}},
  {"arxiv_id": "2401.00002v2", "title": "Sparse Transformers",
   "authors": ["B. Writer", "C. Coder"], "abstract": "Attention is sparse.",
   "categories": ["cs.CL", "cs.LG"], "published": "2024-01-03T00:00:00Z", "updated": "2024-01-03T00:00:00Z",
   "abstract_stats": {"total_words": 3, "unique_words": 3, "total_sentences": 1, "avg_words_per_sentence": 3, "avg_word_length": 6}}
]`

const testStats = `{"query": "cat:cs.LG", "papers_processed": 2}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var raws []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(testPapers), &raws))
	c, err := catalog.New(raws, json.RawMessage(testStats))
	require.NoError(t, err)

	srv := New(c, Options{MetricsPath: DefaultMetricsPath})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestListPapers(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/papers")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []types.PaperSummary
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "2401.00001v1", got[0].ArxivID)
	assert.Equal(t, "Deep Learning for Graphs", got[0].Title)
	assert.Equal(t, []string{"B. Writer", "C. Coder"}, got[1].Authors)

	// Summaries omit the abstract.
	assert.NotContains(t, string(body), "abstract")
}

func TestGetPaper(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/papers/2401.00002v2")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p types.Paper
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Sparse Transformers", p.Title)
	assert.Equal(t, "Attention is sparse.", p.Abstract)
	assert.Equal(t, 3, p.AbstractStats.TotalWords)
}

func TestGetPaperNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/papers/9999.99999", "/papers/2401.00001", "/papers/"} {
		resp, body := get(t, ts, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Paper ID not found", errorOf(t, body), path)
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/search?q=graph+deep")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got types.SearchResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "graph deep", got.Query)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "2401.00001v1", got.Results[0].ArxivID)
	assert.Equal(t, []string{"title", "abstract"}, got.Results[0].MatchesIn)
	assert.Positive(t, got.Results[0].MatchScore)
}

func TestSearchNoResults(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/search?q=quantum")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"query":"quantum","results":[]}`, string(body))
}

func TestSearchErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/search", "Missing search query"},
		{"/search?other=x", "Missing search query"},
		{"/search?q=", "Missing search query"},
		{"/search?q=+++", "Empty search query"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts, tt.path)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, errorOf(t, body))
		})
	}
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, testStats, string(body))
}

func TestStatsEmptyCatalog(t *testing.T) {
	c := catalog.Load(context.Background(), t.TempDir())
	ts := httptest.NewServer(New(c, Options{}).Handler())
	defer ts.Close()

	resp, body := get(t, ts, "/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(body))

	resp, body = get(t, ts, "/papers")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestUnknownEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/unknown", "/papers2", "/stats/extra"} {
		resp, body := get(t, ts, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Invalid endpoint", errorOf(t, body), path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/papers", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", errorOf(t, body))
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","papers":2}`, string(body))

	get(t, ts, "/papers")
	get(t, ts, "/papers/missing")

	resp, body = get(t, ts, DefaultMetricsPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `arxivlab_http_requests_total{code="200",method="GET",route="papers"} 1`)
	assert.Contains(t, text, `arxivlab_http_requests_total{code="404",method="GET",route="paper"} 1`)
	assert.Contains(t, text, "arxivlab_http_request_duration_seconds")
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := get(t, ts, "/papers")
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/papers", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(types.ServerConfig{MetricsPath: "/m", ShutdownTimeout: time.Second})
	assert.Equal(t, ":8080", opts.Addr)
	assert.Equal(t, "/m", opts.MetricsPath)

	opts = NewOptions(types.ServerConfig{Port: 9090})
	assert.Equal(t, ":9090", opts.Addr)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	c, err := catalog.FromPapers(nil, nil)
	require.NoError(t, err)
	srv := New(c, Options{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
