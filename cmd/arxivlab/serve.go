// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-lab/internal/catalog"
	"github.com/pdiddy/arxiv-lab/internal/server"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// errInvalidServePort is printed when the positional port is not an integer.
var errInvalidServePort = errors.New("Invalid port, must be integer") //nolint:staticcheck // user-facing message

var serveCmd = &cobra.Command{
	Use:   "serve [port]",
	Short: "Serve papers and corpus statistics over HTTP",
	Long: `Serve loads papers.json and corpus_analysis.json from the data directory
(or a SQLite index built with "index ingest") and serves them as JSON:

  GET /papers             paper summaries
  GET /papers/{arxiv_id}  full paper record
  GET /search?q=...       title and abstract search
  GET /stats              corpus analysis

The port may be given as an argument or with --port (default 8080).`,
	Args: usageArgs(0, 1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", server.DefaultPort, "port to listen on")
	serveCmd.Flags().String("data-dir", "sample_data", "directory containing papers.json and corpus_analysis.json")
	serveCmd.Flags().String("db", "", "load the catalog from this SQLite index instead of --data-dir")
	serveCmd.Flags().String("metrics-path", server.DefaultMetricsPath, "path of the Prometheus metrics endpoint (empty disables)")

	bindFlag(serveCmd, "server.port", "port")
	bindFlag(serveCmd, "server.data_dir", "data-dir")
	bindFlag(serveCmd, "server.db_path", "db")
	bindFlag(serveCmd, "server.metrics_path", "metrics-path")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	scfg := cfg.Server
	if len(args) == 1 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return errInvalidServePort
		}
		scfg.Port = port
	}

	ctx := cmd.Context()
	c, err := openCatalog(ctx, scfg)
	if err != nil {
		return err
	}

	srv := server.New(c, server.NewOptions(scfg))
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] ArXiv server running on port %d\n",
		time.Now().Format("2006-01-02T15:04:05.000000"), scfg.Port)
	return srv.ListenAndServe(ctx)
}

// openCatalog loads from the SQLite index when configured, else from the
// data directory.
func openCatalog(ctx context.Context, scfg types.ServerConfig) (*catalog.Catalog, error) {
	if scfg.DBPath == "" {
		return catalog.Load(ctx, scfg.DataDir), nil
	}
	store, err := catalog.OpenStore(scfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Catalog(ctx)
}
