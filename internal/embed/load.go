// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Document is one paper reduced to its id and cleaned tokens.
type Document struct {
	ID     string
	Tokens []string
}

// LoadPapers reads a JSON input file. A top-level list is returned as is; an
// object holding a "papers" or "items" list yields that list; any other
// value is treated as a single paper.
func LoadPapers(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	switch t := v.(type) {
	case []any:
		return objects(t), nil
	case map[string]any:
		for _, key := range []string{"papers", "items"} {
			if list, ok := t[key].([]any); ok {
				return objects(list), nil
			}
		}
		return []map[string]any{t}, nil
	default:
		return nil, fmt.Errorf("parsing %s: expected a JSON object or list", path)
	}
}

// objects keeps the object elements of list. Non-object elements become
// empty papers so positional ids stay aligned with the input.
func objects(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, e := range list {
		obj, ok := e.(map[string]any)
		if !ok {
			obj = map[string]any{}
		}
		out = append(out, obj)
	}
	return out
}

// Documents cleans the text of each paper and drops papers with no tokens.
func Documents(papers []map[string]any) []Document {
	docs := make([]Document, 0, len(papers))
	for i, p := range papers {
		tokens := CleanText(PaperText(p))
		if len(tokens) == 0 {
			continue
		}
		docs = append(docs, Document{ID: PaperID(p, i), Tokens: tokens})
	}
	return docs
}
