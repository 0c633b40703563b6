// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// DefaultDBFile is the index file name used when only a directory is given.
const DefaultDBFile = "catalog.db"

// Store is a SQLite index of one data directory's papers and corpus analysis.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the SQLite index at path and ensures the schema.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			position INTEGER PRIMARY KEY,
			arxiv_id TEXT NOT NULL,
			title TEXT,
			abstract TEXT,
			authors TEXT,
			categories TEXT,
			published TEXT,
			updated TEXT,
			raw TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_arxiv_id ON papers(arxiv_id)`,
		`CREATE TABLE IF NOT EXISTS corpus (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			analysis TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// IngestSummary reports the outcome of an Ingest run.
type IngestSummary struct {
	Papers  int
	Skipped bool
}

// Ingest imports papers.json and corpus_analysis.json from dataDir. When both
// files have the same modification times as the previous run the import is
// skipped. A missing corpus file is stored as an empty object; a missing
// papers file is an error.
func (s *Store) Ingest(ctx context.Context, dataDir string, w io.Writer) (IngestSummary, error) {
	papersPath := filepath.Join(dataDir, PapersFile)
	corpusPath := filepath.Join(dataDir, CorpusFile)

	papersInfo, err := os.Stat(papersPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading %s: %w", papersPath, err)
	}
	papersMod := papersInfo.ModTime().UTC().Format(time.RFC3339Nano)
	corpusMod := ""
	if info, err := os.Stat(corpusPath); err == nil {
		corpusMod = info.ModTime().UTC().Format(time.RFC3339Nano)
	}

	unchanged, err := s.unchanged(ctx, map[string]string{PapersFile: papersMod, CorpusFile: corpusMod})
	if err != nil {
		return IngestSummary{}, err
	}
	if unchanged {
		fmt.Fprintf(w, "skipped %s (unchanged)\n", dataDir)
		return IngestSummary{Skipped: true}, nil
	}

	data, err := os.ReadFile(papersPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading %s: %w", papersPath, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing %s: %w", papersPath, err)
	}

	analysis := emptyObject
	if corpusMod != "" {
		cdata, err := os.ReadFile(corpusPath)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("reading %s: %w", corpusPath, err)
		}
		analysis = normalizeStats(cdata)
	}

	if err := s.replace(ctx, raws, analysis, papersMod, corpusMod); err != nil {
		return IngestSummary{}, err
	}

	fmt.Fprintf(w, "indexed %s (%d papers)\n", dataDir, len(raws))
	return IngestSummary{Papers: len(raws)}, nil
}

func (s *Store) unchanged(ctx context.Context, want map[string]string) (bool, error) {
	for source, mod := range want {
		var stored string
		err := s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source = ?`, source,
		).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("reading ingest status: %w", err)
		}
		if stored != mod {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) replace(ctx context.Context, raws []json.RawMessage, analysis json.RawMessage, papersMod, corpusMod string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM papers`); err != nil {
		return fmt.Errorf("clearing papers: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (position, arxiv_id, title, abstract, authors, categories, published, updated, raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, raw := range raws {
		var p types.Paper
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decoding paper %d: %w", i, err)
		}
		authorsJSON, _ := json.Marshal(p.Authors)
		categoriesJSON, _ := json.Marshal(p.Categories)
		if _, err := stmt.ExecContext(ctx,
			i, p.ArxivID, p.Title, p.Abstract,
			string(authorsJSON), string(categoriesJSON),
			p.Published, p.Updated, string(raw),
		); err != nil {
			return fmt.Errorf("inserting paper %s: %w", p.ArxivID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO corpus (id, analysis) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET analysis=excluded.analysis`,
		string(analysis),
	); err != nil {
		return fmt.Errorf("storing corpus analysis: %w", err)
	}

	for source, mod := range map[string]string{PapersFile: papersMod, CorpusFile: corpusMod} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ingest_status (source, file_mod_time) VALUES (?, ?)
			 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
			source, mod,
		); err != nil {
			return fmt.Errorf("updating ingest status: %w", err)
		}
	}

	return tx.Commit()
}

// Catalog rebuilds an in-memory catalog from the index.
func (s *Store) Catalog(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT raw FROM papers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var raws []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		raws = append(raws, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating papers: %w", err)
	}

	var analysis string
	err = s.db.QueryRowContext(ctx, `SELECT analysis FROM corpus WHERE id = 1`).Scan(&analysis)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading corpus analysis: %w", err)
	}

	return New(raws, json.RawMessage(analysis))
}

// exportDoc is the document written by Export.
type exportDoc struct {
	Papers []types.Paper `json:"papers" yaml:"papers"`
	Corpus any           `json:"corpus" yaml:"corpus"`
}

// Export writes the indexed papers and corpus analysis to w as "yaml" or "json".
func (s *Store) Export(ctx context.Context, format string, w io.Writer) error {
	c, err := s.Catalog(ctx)
	if err != nil {
		return err
	}

	doc := exportDoc{Papers: c.Papers()}
	if err := json.Unmarshal(c.Stats(), &doc.Corpus); err != nil {
		return fmt.Errorf("decoding corpus analysis: %w", err)
	}

	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&doc)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}
