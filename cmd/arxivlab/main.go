// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the arxivlab CLI: the arXiv corpus
// processor, the API server, the embeddings trainer, and the container
// tooling that builds, runs and smoke-tests them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg holds the merged configuration, loaded before any subcommand runs.
var cfg types.Config

// rootCmd is the base command for the arxivlab CLI.
var rootCmd = &cobra.Command{
	Use:   "arxivlab",
	Short: "Fetch, serve and embed arXiv papers",
	Long: `arxivlab fetches paper metadata from the arXiv API, serves it over a
small JSON API, and trains bag-of-words embeddings over the abstracts.

The build, up, down, smoke and launch commands drive the same binary inside
docker or podman containers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		logger.Setup(cfg.Environment)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./arxivlab.yaml or ~/.config/arxivlab/arxivlab.yaml)")
	rootCmd.PersistentFlags().String("env", "", "logging environment: development or production")
	_ = viper.BindPFlag("environment", rootCmd.PersistentFlags().Lookup("env"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("arxivlab")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "arxivlab"))
		}
	}

	viper.SetEnvPrefix("ARXIVLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
