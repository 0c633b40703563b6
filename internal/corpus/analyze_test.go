// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-lab/pkg/types"
)

func samplePapers() []types.Paper {
	return []types.Paper{
		{
			ArxivID:    "2401.00001v1",
			Title:      "Learning Networks",
			Abstract:   "Neural networks learn. Networks generalize.",
			Categories: []string{"cs.LG", "cs.AI"},
		},
		{
			ArxivID:    "2401.00002v1",
			Title:      "Graphs",
			Abstract:   "Graph neural networks use GNN layers.",
			Categories: []string{"cs.LG"},
		},
	}
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC)
	a := Analyze("cat:cs.LG", samplePapers(), now)

	assert.Equal(t, "cat:cs.LG", a.Query)
	assert.Equal(t, 2, a.PapersProcessed)
	assert.Equal(t, "2025-01-02T03:04:05.123456 UTC", a.ProcessingTimestamp)

	assert.Equal(t, types.CorpusStats{
		TotalAbstracts:        2,
		TotalWords:            11,
		UniqueWordsGlobal:     10,
		AvgAbstractLength:     5.5,
		LongestAbstractWords:  6,
		ShortestAbstractWords: 5,
	}, a.CorpusStats)

	require.GreaterOrEqual(t, len(a.Top50Words), 3)
	assert.Equal(t, types.WordFrequency{Word: "networks", Frequency: 3}, a.Top50Words[0])
	assert.Equal(t, types.WordFrequency{Word: "neural", Frequency: 2}, a.Top50Words[1])
	assert.Equal(t, types.WordFrequency{Word: "learn", Frequency: 1}, a.Top50Words[2])
	assert.Len(t, a.Top50Words, 8)

	assert.Equal(t, []string{"GNN"}, a.TechnicalTerms.UppercaseTerms)
	assert.Equal(t, []string{}, a.TechnicalTerms.NumericTerms)
	assert.Equal(t, map[string]int{"cs.LG": 2, "cs.AI": 1}, a.CategoryDistribution)
}

func TestAnalyzeNoPapers(t *testing.T) {
	a := Analyze("q", nil, time.Now())
	assert.Zero(t, a.PapersProcessed)
	assert.Zero(t, a.CorpusStats.AvgAbstractLength)
	assert.Empty(t, a.Top50Words)
	assert.NotNil(t, a.CategoryDistribution)
}

func TestTopWordsLimitAndTies(t *testing.T) {
	words := []string{"zeta", "alpha", "The", "beta", "alpha", "zeta", "gamma"}
	got := TopWords(words, 3)
	assert.Equal(t, []types.WordFrequency{
		{Word: "zeta", Frequency: 2},
		{Word: "alpha", Frequency: 2},
		{Word: "beta", Frequency: 1},
	}, got)
}

func TestAnnotate(t *testing.T) {
	p := types.Paper{Abstract: "Transformers scale. They work."}
	Annotate(&p)
	assert.Equal(t, 4, p.AbstractStats.TotalWords)
	assert.Equal(t, 2, p.AbstractStats.TotalSentences)
	assert.Equal(t, 3, p.AbstractStats.UniqueWords)
}
