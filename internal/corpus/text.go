// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"regexp"
	"strings"
	"unicode"
)

// wordClass is a Unicode word character: letters, numbers and underscore.
// RE2's \w and \b are ASCII-only, so words are matched as maximal runs.
const wordClass = `[\p{L}\p{N}_]`

var (
	wordRe       = regexp.MustCompile(wordClass + `+`)
	sentenceRe   = regexp.MustCompile(`[.!?]`)
	uppercaseRe  = regexp.MustCompile(`^[A-Z]{2,}$`)
	hyphenatedRe = regexp.MustCompile(wordClass + `+-` + wordClass + `+`)
)

// stopwords are excluded from unique-word counts and frequency tables.
var stopwords = toSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "of", "with", "by", "from",
	"up", "about", "into", "is", "are", "was", "were", "be", "been", "being", "do", "does",
	"did", "will", "would", "could", "can", "this", "that", "these", "those", "i", "we",
	"they", "what", "which", "who", "when", "all", "each", "every", "both", "few", "more",
	"most", "other", "some", "such", "as", "also", "very", "too", "only",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// IsStopword reports whether the lowercased word is in the stopword list.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// Words returns the word tokens of text in order.
func Words(text string) []string {
	return wordRe.FindAllString(text, -1)
}

// TextStats is the per-abstract analysis. The term lists are kept with
// duplicates; corpus aggregation de-duplicates them.
type TextStats struct {
	TotalWords          int
	UniqueWords         int
	TotalSentences      int
	AvgWordsPerSentence float64
	AvgWordLength       float64
	LongestSentence     int
	ShortestSentence    int
	UppercaseTerms      []string
	NumericTerms        []string
	HyphenatedTerms     []string
}

// AnalyzeText computes word, sentence and technical-term statistics for text.
func AnalyzeText(text string) TextStats {
	words := Words(text)

	var s TextStats
	s.TotalWords = len(words)

	unique := make(map[string]struct{})
	letters := 0
	for _, w := range words {
		letters += len([]rune(w))
		lw := strings.ToLower(w)
		if _, stop := stopwords[lw]; !stop {
			unique[lw] = struct{}{}
		}
		if uppercaseRe.MatchString(w) {
			s.UppercaseTerms = append(s.UppercaseTerms, w)
		}
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			s.NumericTerms = append(s.NumericTerms, w)
		}
	}
	s.UniqueWords = len(unique)
	if s.TotalWords > 0 {
		s.AvgWordLength = float64(letters) / float64(s.TotalWords)
	}

	var lengths []int
	for _, sentence := range sentenceRe.Split(text, -1) {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		lengths = append(lengths, len(Words(sentence)))
	}
	s.TotalSentences = len(lengths)
	if len(lengths) > 0 {
		sum := 0
		s.LongestSentence, s.ShortestSentence = lengths[0], lengths[0]
		for _, n := range lengths {
			sum += n
			s.LongestSentence = max(s.LongestSentence, n)
			s.ShortestSentence = min(s.ShortestSentence, n)
		}
		s.AvgWordsPerSentence = float64(sum) / float64(len(lengths))
	}

	s.HyphenatedTerms = hyphenatedRe.FindAllString(text, -1)
	return s
}
