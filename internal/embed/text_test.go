// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits", "Deep Learning Models", []string{"deep", "learning", "models"}},
		{"drops digits and punctuation", "GPT-4 achieves 95% accuracy!", []string{"gpt", "achieves", "accuracy"}},
		{"drops single letters", "a b cd e fg", []string{"cd", "fg"}},
		{"non ascii becomes space", "naïve café", []string{"na", "ve", "caf"}},
		{"empty", "", []string{}},
		{"only symbols", "123 !!! ?", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestPaperID(t *testing.T) {
	tests := []struct {
		name  string
		paper string
		want  string
	}{
		{"id", `{"id": "p1", "arxiv_id": "a1"}`, "p1"},
		{"arxiv_id when id empty", `{"id": "", "arxiv_id": "2401.00001v1"}`, "2401.00001v1"},
		{"doi", `{"doi": "10.1/x"}`, "10.1/x"},
		{"numeric id", `{"paper_id": 42}`, "42"},
		{"object id kept whole", `{"id": {"b": "x", "a": "y"}, "arxiv_id": "a1"}`, `{"a":"y","b":"x"}`},
		{"list arxiv_id kept whole", `{"arxiv_id": ["2401.00001", 2]}`, `["2401.00001",2]`},
		{"empty object falls through", `{"id": {}, "uid": "u9"}`, "u9"},
		{"fallback to index", `{"title": "x"}`, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaperID(decode(t, tt.paper), 7))
		})
	}
}

func TestPaperText(t *testing.T) {
	tests := []struct {
		name  string
		paper string
		want  string
	}{
		{"abstract", `{"abstract": "A", "summary": "S"}`, "A"},
		{"summary", `{"abstract": "", "summary": "S"}`, "S"},
		{"description", `{"description": "D"}`, "D"},
		{"fallback fields", `{"title": "T", "authors": ["X", "Y"], "comment": "C"}`, "T X Y C"},
		{"nothing", `{"year": 2020}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PaperText(decode(t, tt.paper)))
		})
	}
}
