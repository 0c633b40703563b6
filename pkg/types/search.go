// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for arxiv-lab: paper records,
// corpus analysis, search responses, embedding artifacts, and configuration.
package types

// Fields a search term can match in.
const (
	FieldTitle    = "title"
	FieldAbstract = "abstract"
)

// SearchHit is one paper matching a search query.
type SearchHit struct {
	ArxivID string `json:"arxiv_id"`
	Title   string `json:"title"`

	// MatchScore is the total number of term occurrences across title and abstract.
	MatchScore int `json:"match_score"`

	// MatchesIn lists the fields with at least one hit, title before abstract.
	MatchesIn []string `json:"matches_in"`
}

// SearchResponse is the body returned by the search endpoint.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}
