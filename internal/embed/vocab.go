// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import "sort"

// UnknownToken occupies index 0 of every vocabulary.
const UnknownToken = "<UNK>"

// Vocabulary maps the most frequent words to dense indices starting at 1.
type Vocabulary struct {
	Index      map[string]int
	Words      []string // Words[i] is the word at index i; Words[0] is UnknownToken.
	TotalWords int
}

// BuildVocabulary keeps the maxSize most frequent tokens across docs. Words
// with equal counts are ordered by first appearance.
func BuildVocabulary(docs []Document, maxSize int) Vocabulary {
	counts := make(map[string]int)
	var order []string
	total := 0
	for _, d := range docs {
		for _, w := range d.Tokens {
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
			total++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if maxSize >= 0 && len(order) > maxSize {
		order = order[:maxSize]
	}

	v := Vocabulary{
		Index:      make(map[string]int, len(order)+1),
		Words:      make([]string, 0, len(order)+1),
		TotalWords: total,
	}
	v.Index[UnknownToken] = 0
	v.Words = append(v.Words, UnknownToken)
	for i, w := range order {
		v.Index[w] = i + 1
		v.Words = append(v.Words, w)
	}
	return v
}

// Size is the number of indices including UnknownToken.
func (v Vocabulary) Size() int { return len(v.Words) }

// Bag returns the sorted distinct indices present in tokens. Tokens outside
// the vocabulary map to index 0.
func (v Vocabulary) Bag(tokens []string) []int {
	seen := make(map[int]struct{}, len(tokens))
	for _, w := range tokens {
		seen[v.Index[w]] = struct{}{}
	}
	bag := make([]int, 0, len(seen))
	for idx := range seen {
		bag = append(bag, idx)
	}
	sort.Ints(bag)
	return bag
}
