// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AbstractStats summarises the text of a single abstract.
type AbstractStats struct {
	TotalWords          int     `json:"total_words" yaml:"total_words"`
	UniqueWords         int     `json:"unique_words" yaml:"unique_words"`
	TotalSentences      int     `json:"total_sentences" yaml:"total_sentences"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence" yaml:"avg_words_per_sentence"`
	AvgWordLength       float64 `json:"avg_word_length" yaml:"avg_word_length"`
}

// Paper holds the metadata for one arXiv entry as written to papers.json.
type Paper struct {
	// ArxivID is the last path segment of the Atom entry id (e.g. "2301.07041v1").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the whitespace-trimmed paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in feed order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the whitespace-trimmed summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Categories lists the arXiv category terms (e.g. "cs.LG").
	Categories []string `json:"categories" yaml:"categories"`

	// Published and Updated are kept as the raw RFC 3339 strings from the feed.
	Published string `json:"published" yaml:"published"`
	Updated   string `json:"updated" yaml:"updated"`

	AbstractStats AbstractStats `json:"abstract_stats" yaml:"abstract_stats"`
}

// PaperSummary is the reduced view of a Paper returned by the list endpoint.
type PaperSummary struct {
	ArxivID    string   `json:"arxiv_id" yaml:"arxiv_id"`
	Title      string   `json:"title" yaml:"title"`
	Authors    []string `json:"authors" yaml:"authors"`
	Categories []string `json:"categories" yaml:"categories"`
}

// Summary returns the list-endpoint view of p. Nil slices become empty so
// they encode as [] rather than null.
func (p Paper) Summary() PaperSummary {
	s := PaperSummary{
		ArxivID:    p.ArxivID,
		Title:      p.Title,
		Authors:    p.Authors,
		Categories: p.Categories,
	}
	if s.Authors == nil {
		s.Authors = []string{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	return s
}
