// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus turns an arXiv query into papers.json and
// corpus_analysis.json: per-abstract text statistics, corpus-wide word
// frequencies, technical terms and category distribution.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/arxiv"
	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// Output file names written to the processor's output directory.
const (
	PapersFile = "papers.json"
	CorpusFile = "corpus_analysis.json"
	LogFile    = "processing.log"
)

// Fetcher retrieves papers for a query. *arxiv.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, query string, maxResults int) (arxiv.FetchResult, error)
}

// Processor fetches papers, analyses them and writes the output files.
type Processor struct {
	Fetcher Fetcher

	// Now returns the current time; nil uses time.Now.
	Now func() time.Time

	// Out receives one progress line per paper; nil discards.
	Out io.Writer
}

// Summary describes a completed processing run.
type Summary struct {
	Papers   int
	Skipped  int
	Analysis types.CorpusAnalysis
}

// Run executes query and writes papers.json, corpus_analysis.json and
// processing.log under outputDir, creating it if needed.
func (p *Processor) Run(ctx context.Context, query string, maxResults int, outputDir string) (Summary, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}

	plog, err := openProcessingLog(filepath.Join(outputDir, LogFile), p.now)
	if err != nil {
		return Summary{}, err
	}
	defer plog.Close()

	out := p.Out
	if out == nil {
		out = io.Discard
	}

	plog.Printf("Starting ArXiv query: %s", query)
	logger.Info(ctx, "starting arXiv query", zap.String("query", query), zap.Int("max_results", maxResults))

	res, err := p.Fetcher.Fetch(ctx, query, maxResults)
	if err != nil {
		if errors.Is(err, arxiv.ErrInvalidXML) {
			plog.Printf("Invalid XML: %v", err)
		} else {
			plog.Printf("Network error: %v", err)
		}
		return Summary{}, fmt.Errorf("fetching papers: %w", err)
	}

	for _, s := range res.Skipped {
		plog.Printf("Missing fields: entry %d: %s", s.Index, s.Reason)
		logger.Warn(ctx, "skipping feed entry", zap.Int("index", s.Index), zap.String("reason", s.Reason))
	}

	papers := make([]types.Paper, 0, len(res.Papers))
	for _, paper := range res.Papers {
		Annotate(&paper)
		papers = append(papers, paper)
		plog.Printf("Processing paper: %s", paper.ArxivID)
		fmt.Fprintf(out, "processed %s\n", paper.ArxivID)
	}

	analysis := Analyze(query, papers, p.now())

	if err := writeJSON(filepath.Join(outputDir, PapersFile), papers); err != nil {
		return Summary{}, err
	}
	if err := writeJSON(filepath.Join(outputDir, CorpusFile), analysis); err != nil {
		return Summary{}, err
	}

	plog.Printf("Completed processing: %d papers", len(papers))
	logger.Info(ctx, "completed processing", zap.Int("papers", len(papers)), zap.Int("skipped", len(res.Skipped)))

	return Summary{Papers: len(papers), Skipped: len(res.Skipped), Analysis: analysis}, nil
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// writeJSON writes v as two-space indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// processingLog appends "[timestamp] message" lines to processing.log.
type processingLog struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

func openProcessingLog(path string, now func() time.Time) (*processingLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening processing log: %w", err)
	}
	return &processingLog{f: f, now: now}, nil
}

func (l *processingLog) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.f, "[%s] %s\n", l.now().UTC().Format(TimestampLayout), fmt.Sprintf(format, args...))
}

func (l *processingLog) Close() error {
	return l.f.Close()
}
