// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-lab/internal/arxiv"
	"github.com/pdiddy/arxiv-lab/internal/corpus"
)

var processCmd = &cobra.Command{
	Use:   "process <query> <count> <output_dir>",
	Short: "Fetch papers from arXiv and write the corpus analysis",
	Long: `Process queries the arXiv API (e.g. "cat:cs.LG"), computes per-abstract
and corpus statistics, and writes papers.json, corpus_analysis.json and
processing.log to the output directory. These are the files "serve" reads.`,
	Args: usageArgs(3, 3),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	processCmd.Flags().String("user-agent", defaultUserAgent, "User-Agent sent to the arXiv API")
	processCmd.Flags().Int("max-retries", 3, "retries on HTTP 429")

	bindFlag(processCmd, "fetch.timeout", "timeout")
	bindFlag(processCmd, "fetch.user_agent", "user-agent")
	bindFlag(processCmd, "fetch.max_retries", "max-retries")

	rootCmd.AddCommand(processCmd)
}

// parseCount parses a positive paper count.
func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("count must be a positive integer, got %q", s)
	}
	return n, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	query, outputDir := args[0], args[2]
	count, err := parseCount(args[1])
	if err != nil {
		return err
	}

	p := &corpus.Processor{
		Fetcher: arxiv.NewClient(cfg.Fetch),
		Out:     cmd.OutOrStdout(),
	}
	summary, err := p.Run(cmd.Context(), query, count, outputDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processed %d papers (%d skipped) into %s\n",
		summary.Papers, summary.Skipped, outputDir)
	return nil
}
