// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-lab/internal/arxiv"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

type fakeFetcher struct {
	result arxiv.FetchResult
	err    error

	gotQuery string
	gotMax   int
}

func (f *fakeFetcher) Fetch(_ context.Context, query string, maxResults int) (arxiv.FetchResult, error) {
	f.gotQuery = query
	f.gotMax = maxResults
	return f.result, f.err
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestProcessorRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	fetcher := &fakeFetcher{result: arxiv.FetchResult{
		Papers:  samplePapers(),
		Skipped: []arxiv.Skipped{{Index: 2, Reason: "missing title"}},
	}}
	var out bytes.Buffer
	p := &Processor{Fetcher: fetcher, Now: fixedNow, Out: &out}

	summary, err := p.Run(context.Background(), "cat:cs.LG", 10, dir)
	require.NoError(t, err)

	assert.Equal(t, "cat:cs.LG", fetcher.gotQuery)
	assert.Equal(t, 10, fetcher.gotMax)
	assert.Equal(t, 2, summary.Papers)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, out.String(), "processed 2401.00001v1")

	var papers []types.Paper
	readJSON(t, filepath.Join(dir, PapersFile), &papers)
	require.Len(t, papers, 2)
	assert.Equal(t, 5, papers[0].AbstractStats.TotalWords)
	assert.Equal(t, 2, papers[0].AbstractStats.TotalSentences)

	var analysis types.CorpusAnalysis
	readJSON(t, filepath.Join(dir, CorpusFile), &analysis)
	assert.Equal(t, 2, analysis.PapersProcessed)
	assert.Equal(t, "2025-03-04T05:06:07.000000 UTC", analysis.ProcessingTimestamp)

	logData, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logData)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "[2025-03-04T05:06:07.000000 UTC] Starting ArXiv query: cat:cs.LG", lines[0])
	assert.Contains(t, lines[1], "Missing fields: entry 2: missing title")
	assert.Contains(t, lines[2], "Processing paper: 2401.00001v1")
	assert.Contains(t, lines[4], "Completed processing: 2 papers")
}

func TestProcessorRunEmptyResult(t *testing.T) {
	dir := t.TempDir()
	p := &Processor{Fetcher: &fakeFetcher{}, Now: fixedNow}

	_, err := p.Run(context.Background(), "all:nothing", 5, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, PapersFile))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestProcessorRunFetchError(t *testing.T) {
	dir := t.TempDir()
	p := &Processor{Fetcher: &fakeFetcher{err: errors.New("connection refused")}, Now: fixedNow}

	_, err := p.Run(context.Background(), "all:x", 5, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, statErr := os.Stat(filepath.Join(dir, PapersFile))
	assert.True(t, os.IsNotExist(statErr), "papers.json should not be written on fetch failure")

	logData, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Network error: connection refused")
}

func TestProcessorRunInvalidXML(t *testing.T) {
	dir := t.TempDir()
	fetchErr := fmt.Errorf("%w: XML syntax error on line 1", arxiv.ErrInvalidXML)
	p := &Processor{Fetcher: &fakeFetcher{err: fetchErr}, Now: fixedNow}

	_, err := p.Run(context.Background(), "all:x", 5, dir)
	require.ErrorIs(t, err, arxiv.ErrInvalidXML)

	logData, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "Invalid XML: parsing arXiv response: XML syntax error on line 1")
	assert.NotContains(t, string(logData), "Network error")
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}
