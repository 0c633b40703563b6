// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed trains a bag-of-words autoencoder over paper abstracts and
// writes per-paper embeddings.
package embed

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonLetter = regexp.MustCompile(`[^a-z\s]`)

// CleanText lowercases text, replaces everything except ASCII letters and
// whitespace with spaces, and returns the words longer than one character.
func CleanText(text string) []string {
	text = nonLetter.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(text)
	words := fields[:0]
	for _, w := range fields {
		if len(w) > 1 {
			words = append(words, w)
		}
	}
	return words
}

var (
	idKeys       = []string{"id", "arxiv_id", "paper_id", "uid", "doi"}
	abstractKeys = []string{"abstract", "summary", "abstract_text", "description"}
	fallbackKeys = []string{"title", "authors", "categories", "comment"}
)

// PaperID returns the first non-empty identifier field of paper. Object and
// list values are kept whole as compact JSON. Papers without an identifier
// fall back to their position in the input.
func PaperID(paper map[string]any, index int) string {
	for _, k := range idKeys {
		if s := idString(paper[k]); s != "" {
			return s
		}
	}
	return strconv.Itoa(index)
}

func idString(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
	case []any:
		if len(t) == 0 {
			return ""
		}
	default:
		return stringify(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// PaperText returns the abstract of paper, or the title, authors,
// categories and comment joined by spaces when no abstract field is set.
func PaperText(paper map[string]any) string {
	for _, k := range abstractKeys {
		if s := stringify(paper[k]); s != "" {
			return s
		}
	}
	parts := make([]string, 0, len(fallbackKeys))
	for _, k := range fallbackKeys {
		if s := stringify(paper[k]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// stringify renders a decoded JSON value as text. Empty strings, empty
// lists, false, zero and null render as "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return ""
		}
		return "True"
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := stringify(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]any:
		if len(t) == 0 {
			return ""
		}
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
