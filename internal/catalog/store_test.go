// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "index", DefaultDBFile))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreIngestAndCatalog(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dir := writeDataDir(t, samplePapersJSON, sampleCorpusJSON)

	var out bytes.Buffer
	summary, err := s.Ingest(ctx, dir, &out)
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Papers: 3}, summary)
	assert.Contains(t, out.String(), "indexed")

	c, err := s.Catalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Equal(t, "2401.00001v1", c.List()[0].ArxivID)
	assert.Equal(t, "2401.00003v1", c.List()[2].ArxivID)

	raw, ok := c.Get("2401.00001v1")
	require.True(t, ok)
	assert.Contains(t, string(raw), "kept verbatim")
	assert.JSONEq(t, sampleCorpusJSON, string(c.Stats()))

	res, err := c.Search("attention")
	require.NoError(t, err)
	assert.Len(t, res.Results, 2)
}

func TestStoreIngestSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	dir := writeDataDir(t, samplePapersJSON, sampleCorpusJSON)

	_, err := s.Ingest(ctx, dir, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := s.Ingest(ctx, dir, &out)
	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.Contains(t, out.String(), "skipped")

	// Rewriting papers.json with a newer mtime triggers a re-import.
	papersPath := filepath.Join(dir, PapersFile)
	require.NoError(t, os.WriteFile(papersPath, []byte(`[{"arxiv_id": "only"}]`), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(papersPath, later, later))

	summary, err = s.Ingest(ctx, dir, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, IngestSummary{Papers: 1}, summary)

	c, err := s.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestStoreIngestErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Ingest(ctx, t.TempDir(), &bytes.Buffer{})
	require.Error(t, err, "missing papers.json")

	_, err = s.Ingest(ctx, writeDataDir(t, `{"not": "array"}`, ""), &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestStoreMissingCorpusStoredAsEmpty(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Ingest(ctx, writeDataDir(t, samplePapersJSON, ""), &bytes.Buffer{})
	require.NoError(t, err)

	c, err := s.Catalog(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(c.Stats()))
}

func TestStoreEmptyCatalog(t *testing.T) {
	c, err := openTestStore(t).Catalog(context.Background())
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	assert.JSONEq(t, `{}`, string(c.Stats()))
}

func TestStoreExport(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	_, err := s.Ingest(ctx, writeDataDir(t, samplePapersJSON, sampleCorpusJSON), &bytes.Buffer{})
	require.NoError(t, err)

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Export(ctx, "yaml", &buf))

		var doc exportDoc
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
		require.Len(t, doc.Papers, 3)
		assert.Equal(t, "Attention for Graphs", doc.Papers[0].Title)
		assert.Equal(t, "cat:cs.LG", doc.Corpus.(map[string]any)["query"])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Export(ctx, "json", &buf))

		var doc map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Len(t, doc["papers"], 3)
		assert.Equal(t, "cat:cs.LG", doc["corpus"].(map[string]any)["query"])
	})

	t.Run("unsupported", func(t *testing.T) {
		err := s.Export(ctx, "csv", &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}
