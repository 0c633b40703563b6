// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// TopWordsLimit is the length of the top-words table.
const TopWordsLimit = 50

// TimestampLayout formats processing timestamps as UTC with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000 UTC"

// Analyze builds the corpus analysis document for papers.
func Analyze(query string, papers []types.Paper, now time.Time) types.CorpusAnalysis {
	var (
		corpusWords []string
		uppercase   []string
		numeric     []string
		hyphenated  []string
	)
	categories := make(map[string]int)

	for _, p := range papers {
		corpusWords = append(corpusWords, Words(p.Abstract)...)
		for _, c := range p.Categories {
			categories[c]++
		}
		ts := AnalyzeText(p.Abstract)
		uppercase = append(uppercase, ts.UppercaseTerms...)
		numeric = append(numeric, ts.NumericTerms...)
		hyphenated = append(hyphenated, ts.HyphenatedTerms...)
	}

	stats := types.CorpusStats{
		TotalAbstracts:    len(papers),
		TotalWords:        len(corpusWords),
		UniqueWordsGlobal: len(distinct(corpusWords)),
	}
	if len(papers) > 0 {
		stats.AvgAbstractLength = float64(len(corpusWords)) / float64(len(papers))
		stats.LongestAbstractWords = len(strings.Fields(papers[0].Abstract))
		stats.ShortestAbstractWords = stats.LongestAbstractWords
		for _, p := range papers[1:] {
			n := len(strings.Fields(p.Abstract))
			stats.LongestAbstractWords = max(stats.LongestAbstractWords, n)
			stats.ShortestAbstractWords = min(stats.ShortestAbstractWords, n)
		}
	}

	return types.CorpusAnalysis{
		Query:               query,
		PapersProcessed:     len(papers),
		ProcessingTimestamp: now.UTC().Format(TimestampLayout),
		CorpusStats:         stats,
		Top50Words:          TopWords(corpusWords, TopWordsLimit),
		TechnicalTerms: types.TechnicalTerms{
			UppercaseTerms:  distinct(uppercase),
			NumericTerms:    distinct(numeric),
			HyphenatedTerms: distinct(hyphenated),
		},
		CategoryDistribution: categories,
	}
}

// Annotate fills p.AbstractStats from its abstract.
func Annotate(p *types.Paper) {
	ts := AnalyzeText(p.Abstract)
	p.AbstractStats = types.AbstractStats{
		TotalWords:          ts.TotalWords,
		UniqueWords:         ts.UniqueWords,
		TotalSentences:      ts.TotalSentences,
		AvgWordsPerSentence: ts.AvgWordsPerSentence,
		AvgWordLength:       ts.AvgWordLength,
	}
}

// TopWords returns the n most frequent lowercased non-stopwords. Ties keep
// the order in which words first appeared.
func TopWords(words []string, n int) []types.WordFrequency {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		lw := strings.ToLower(w)
		if _, stop := stopwords[lw]; stop {
			continue
		}
		if counts[lw] == 0 {
			order = append(order, lw)
		}
		counts[lw]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]types.WordFrequency, 0, len(order))
	for _, w := range order {
		out = append(out, types.WordFrequency{Word: w, Frequency: counts[w]})
	}
	return out
}

// distinct returns the sorted unique values of in, never nil.
func distinct(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := []string{}
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
