// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the papers served by the API: an immutable in-memory
// index built from papers.json and corpus_analysis.json, term-count search,
// and an optional SQLite index the catalog can be rebuilt from.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// Source file names inside a data directory.
const (
	PapersFile = "papers.json"
	CorpusFile = "corpus_analysis.json"
)

var emptyObject = json.RawMessage(`{}`)

// entry pairs the decoded paper with the exact JSON it was loaded from, so
// the detail endpoint returns fields this package does not model.
type entry struct {
	paper types.Paper
	raw   json.RawMessage
}

// Catalog is a read-only paper index. It is safe for concurrent use.
type Catalog struct {
	entries []entry
	byID    map[string]int
	stats   json.RawMessage
}

// New builds a catalog from raw paper objects and a raw stats document.
// Objects that are not valid paper JSON are rejected.
func New(rawPapers []json.RawMessage, stats json.RawMessage) (*Catalog, error) {
	c := &Catalog{
		entries: make([]entry, 0, len(rawPapers)),
		byID:    make(map[string]int, len(rawPapers)),
		stats:   normalizeStats(stats),
	}
	for i, raw := range rawPapers {
		var p types.Paper
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding paper %d: %w", i, err)
		}
		c.add(p, raw)
	}
	return c, nil
}

// FromPapers builds a catalog from typed papers.
func FromPapers(papers []types.Paper, stats json.RawMessage) (*Catalog, error) {
	raws := make([]json.RawMessage, 0, len(papers))
	for _, p := range papers {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding paper %s: %w", p.ArxivID, err)
		}
		raws = append(raws, raw)
	}
	return New(raws, stats)
}

// add appends a paper; a later paper with the same id replaces an earlier
// one in the id index but both stay in the list.
func (c *Catalog) add(p types.Paper, raw json.RawMessage) {
	c.byID[p.ArxivID] = len(c.entries)
	c.entries = append(c.entries, entry{paper: p, raw: raw})
}

func normalizeStats(stats json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(stats)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return emptyObject
	}
	return trimmed
}

// Load reads papers.json and corpus_analysis.json from dataDir. A missing or
// malformed file is logged and treated as empty so the server can still start.
func Load(ctx context.Context, dataDir string) *Catalog {
	rawPapers := readPapers(ctx, filepath.Join(dataDir, PapersFile))
	stats := readStats(ctx, filepath.Join(dataDir, CorpusFile))

	c := &Catalog{
		entries: make([]entry, 0, len(rawPapers)),
		byID:    make(map[string]int, len(rawPapers)),
		stats:   normalizeStats(stats),
	}
	for i, raw := range rawPapers {
		var p types.Paper
		if err := json.Unmarshal(raw, &p); err != nil {
			logger.Warn(ctx, "skipping malformed paper", zap.Int("index", i), zap.Error(err))
			continue
		}
		c.add(p, raw)
	}

	logger.Info(ctx, "catalog loaded", zap.String("data_dir", dataDir), zap.Int("papers", c.Len()))
	return c
}

func readPapers(ctx context.Context, path string) []json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn(ctx, "papers file unavailable, serving empty list", zap.String("path", path), zap.Error(err))
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		logger.Warn(ctx, "papers file is not a JSON array, serving empty list", zap.String("path", path), zap.Error(err))
		return nil
	}
	return raws
}

func readStats(ctx context.Context, path string) json.RawMessage {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn(ctx, "corpus analysis unavailable, serving empty stats", zap.String("path", path), zap.Error(err))
		return nil
	}
	if !json.Valid(data) {
		logger.Warn(ctx, "corpus analysis is not valid JSON, serving empty stats", zap.String("path", path))
		return nil
	}
	return data
}

// Len returns the number of papers.
func (c *Catalog) Len() int { return len(c.entries) }

// List returns the summary view of every paper in file order.
func (c *Catalog) List() []types.PaperSummary {
	out := make([]types.PaperSummary, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.paper.Summary())
	}
	return out
}

// Papers returns the decoded papers in file order.
func (c *Catalog) Papers() []types.Paper {
	out := make([]types.Paper, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.paper)
	}
	return out
}

// Get returns the full JSON object for id.
func (c *Catalog) Get(id string) (json.RawMessage, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.entries[i].raw, true
}

// Stats returns the corpus analysis document, or {} when none was loaded.
func (c *Catalog) Stats() json.RawMessage { return c.stats }
