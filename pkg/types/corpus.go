// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CorpusStats holds aggregate word counts over all processed abstracts.
type CorpusStats struct {
	TotalAbstracts        int     `json:"total_abstracts" yaml:"total_abstracts"`
	TotalWords            int     `json:"total_words" yaml:"total_words"`
	UniqueWordsGlobal     int     `json:"unique_words_global" yaml:"unique_words_global"`
	AvgAbstractLength     float64 `json:"avg_abstract_length" yaml:"avg_abstract_length"`
	LongestAbstractWords  int     `json:"longest_abstract_words" yaml:"longest_abstract_words"`
	ShortestAbstractWords int     `json:"shortest_abstract_words" yaml:"shortest_abstract_words"`
}

// WordFrequency is one entry of the top-words list.
type WordFrequency struct {
	Word      string `json:"word" yaml:"word"`
	Frequency int    `json:"frequency" yaml:"frequency"`
}

// TechnicalTerms groups the distinct technical tokens found across abstracts.
type TechnicalTerms struct {
	UppercaseTerms  []string `json:"uppercase_terms" yaml:"uppercase_terms"`
	NumericTerms    []string `json:"numeric_terms" yaml:"numeric_terms"`
	HyphenatedTerms []string `json:"hyphenated_terms" yaml:"hyphenated_terms"`
}

// CorpusAnalysis is the document written to corpus_analysis.json and served
// by the stats endpoint.
type CorpusAnalysis struct {
	Query                string          `json:"query" yaml:"query"`
	PapersProcessed      int             `json:"papers_processed" yaml:"papers_processed"`
	ProcessingTimestamp  string          `json:"processing_timestamp" yaml:"processing_timestamp"`
	CorpusStats          CorpusStats     `json:"corpus_stats" yaml:"corpus_stats"`
	Top50Words           []WordFrequency `json:"top_50_words" yaml:"top_50_words"`
	TechnicalTerms       TechnicalTerms  `json:"technical_terms" yaml:"technical_terms"`
	CategoryDistribution map[string]int  `json:"category_distribution" yaml:"category_distribution"`
}
