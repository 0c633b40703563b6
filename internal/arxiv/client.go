// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package arxiv fetches paper metadata from the arXiv Atom query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/arxiv-lab/internal/httputil"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// DefaultBaseURL is the arXiv query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

var (
	// ErrRateLimited is returned when the API still answers 429 after all retries.
	ErrRateLimited = errors.New("arXiv API rate limit exceeded")

	// ErrInvalidXML is returned when the response body is not a well-formed feed.
	ErrInvalidXML = errors.New("parsing arXiv response")
)

// Client queries the arXiv API.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Retry     httputil.RetryPolicy
}

// NewClient builds a Client from cfg, filling defaults for empty fields.
func NewClient(cfg types.FetchConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		HTTP:      &http.Client{Timeout: cfg.Timeout},
		BaseURL:   base,
		UserAgent: cfg.UserAgent,
		Retry: httputil.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
		},
	}
}

// Skipped describes a feed entry that lacked a required field.
type Skipped struct {
	Index  int
	Reason string
}

// FetchResult holds the parsed papers and any skipped entries.
type FetchResult struct {
	Papers  []types.Paper
	Skipped []Skipped
}

// Fetch runs query against the API and returns up to maxResults papers.
// Abstract statistics are left zero; callers fill them in.
func (c *Client) Fetch(ctx context.Context, query string, maxResults int) (FetchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return FetchResult{}, fmt.Errorf("empty arXiv query")
	}
	if maxResults <= 0 {
		return FetchResult{}, fmt.Errorf("max results must be positive, got %d", maxResults)
	}

	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return FetchResult{}, fmt.Errorf("creating request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Retry)
	if err != nil {
		return FetchResult{}, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return FetchResult{}, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var f feed
	if err := xml.NewDecoder(resp.Body).Decode(&f); err != nil {
		return FetchResult{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}
	return parseFeed(f), nil
}

func parseFeed(f feed) FetchResult {
	var out FetchResult
	for i, e := range f.Entries {
		p, reason := e.paper()
		if reason != "" {
			out.Skipped = append(out.Skipped, Skipped{Index: i, Reason: reason})
			continue
		}
		out.Papers = append(out.Papers, p)
	}
	return out
}

// Atom feed XML structures. encoding/xml matches local names, so the Atom
// and arXiv namespaces need no declaration here.
type feed struct {
	Entries []entry `xml:"entry"`
}

type entry struct {
	ID         *string    `xml:"id"`
	Title      *string    `xml:"title"`
	Summary    *string    `xml:"summary"`
	Published  *string    `xml:"published"`
	Updated    *string    `xml:"updated"`
	Authors    []author   `xml:"author"`
	Categories []category `xml:"category"`
}

type author struct {
	Name string `xml:"name"`
}

type category struct {
	Term *string `xml:"term,attr"`
}

// paper converts e, or names the first required field it lacks. Id, title
// and summary must carry text; published, updated and every category term
// must be present.
func (e entry) paper() (types.Paper, string) {
	switch {
	case e.ID == nil || *e.ID == "":
		return types.Paper{}, "missing id"
	case e.Title == nil || *e.Title == "":
		return types.Paper{}, "missing title"
	case e.Summary == nil || *e.Summary == "":
		return types.Paper{}, "missing summary"
	case e.Published == nil:
		return types.Paper{}, "missing published"
	case e.Updated == nil:
		return types.Paper{}, "missing updated"
	}

	p := types.Paper{
		ArxivID:    ExtractID(*e.ID),
		Title:      strings.TrimSpace(*e.Title),
		Abstract:   strings.TrimSpace(*e.Summary),
		Published:  strings.TrimSpace(*e.Published),
		Updated:    strings.TrimSpace(*e.Updated),
		Authors:    []string{},
		Categories: []string{},
	}
	for _, a := range e.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}
	for _, c := range e.Categories {
		if c.Term == nil {
			return types.Paper{}, "category missing term"
		}
		p.Categories = append(p.Categories, *c.Term)
	}
	return p, ""
}

// ExtractID returns the last path segment of an entry id URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
func ExtractID(idURL string) string {
	idURL = strings.TrimSpace(idURL)
	if i := strings.LastIndex(idURL, "/"); i >= 0 {
		return idURL[i+1:]
	}
	return idURL
}
