// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-lab/internal/catalog"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite paper index (ingest, export)",
	Long: `Index maintains a SQLite copy of a processor output directory. The server
can load it with "serve --db".`,
}

// --- ingest subcommand ---

var indexIngestCmd = &cobra.Command{
	Use:   "ingest [data_dir]",
	Short: "Import papers.json and corpus_analysis.json into the index",
	Long: `Ingest reads papers.json and corpus_analysis.json from the data directory
(default: the configured server data directory) into the index. Nothing is
rewritten when neither file changed since the last ingest.`,
	Args: usageArgs(0, 1),
	RunE: runIndexIngest,
}

func runIndexIngest(cmd *cobra.Command, args []string) error {
	dataDir := cfg.Server.DataDir
	if len(args) == 1 {
		dataDir = args[0]
	}

	store, err := openIndex(cmd, dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(cmd.Context(), dataDir, cmd.OutOrStdout())
	return err
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the index as YAML or JSON",
	Args:  usageArgs(0, 0),
	RunE:  runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openIndex(cmd, cfg.Server.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := store.Export(cmd.Context(), format, w); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func openIndex(cmd *cobra.Command, dataDir string) (*catalog.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.Server.DBPath
	}
	if path == "" {
		path = filepath.Join(dataDir, catalog.DefaultDBFile)
	}
	return catalog.OpenStore(path)
}

func init() {
	indexCmd.PersistentFlags().String("db", "", "index file (default: <data_dir>/catalog.db)")

	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	indexCmd.AddCommand(indexIngestCmd)
	indexCmd.AddCommand(indexExportCmd)
	rootCmd.AddCommand(indexCmd)
}
