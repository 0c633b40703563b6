// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"errors"
	"strings"

	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// ErrEmptyQuery is returned when a query has no terms after trimming.
var ErrEmptyQuery = errors.New("empty search query")

// Search scores every paper against the whitespace-separated terms of q.
//
// The query is lowercased and trimmed. For each term the non-overlapping
// occurrences in the lowercased title and abstract are added to the score.
// Papers with a zero score are omitted; the rest keep catalog order.
func (c *Catalog) Search(q string) (types.SearchResponse, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return types.SearchResponse{}, ErrEmptyQuery
	}
	terms := strings.Fields(q)

	resp := types.SearchResponse{Query: q, Results: []types.SearchHit{}}
	for _, e := range c.entries {
		if hit, ok := score(e.paper, terms); ok {
			resp.Results = append(resp.Results, hit)
		}
	}
	return resp, nil
}

func score(p types.Paper, terms []string) (types.SearchHit, bool) {
	title := strings.ToLower(p.Title)
	abstract := strings.ToLower(p.Abstract)

	total := 0
	inTitle, inAbstract := false, false
	for _, term := range terms {
		if n := strings.Count(title, term); n > 0 {
			inTitle = true
			total += n
		}
		if n := strings.Count(abstract, term); n > 0 {
			inAbstract = true
			total += n
		}
	}
	if total == 0 {
		return types.SearchHit{}, false
	}

	hit := types.SearchHit{
		ArxivID:    p.ArxivID,
		Title:      p.Title,
		MatchScore: total,
		MatchesIn:  make([]string, 0, 2),
	}
	if inTitle {
		hit.MatchesIn = append(hit.MatchesIn, types.FieldTitle)
	}
	if inAbstract {
		hit.MatchesIn = append(hit.MatchesIn, types.FieldAbstract)
	}
	return hit, true
}
