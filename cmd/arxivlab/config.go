// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/arxiv-lab/internal/arxiv"
	"github.com/pdiddy/arxiv-lab/internal/deploy"
	"github.com/pdiddy/arxiv-lab/internal/embed"
	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/internal/server"
	"github.com/pdiddy/arxiv-lab/internal/smoke"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

const defaultUserAgent = "arxiv-lab/0.1"

// setDefaults registers the built-in value of every configuration key so
// that environment variables and Unmarshal see the full key set.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", logger.DevelopmentEnvironment)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.user_agent", defaultUserAgent)
	v.SetDefault("fetch.base_url", arxiv.DefaultBaseURL)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_delay", 3*time.Second)

	v.SetDefault("server.port", server.DefaultPort)
	v.SetDefault("server.data_dir", "sample_data")
	v.SetDefault("server.db_path", "")
	v.SetDefault("server.metrics_path", server.DefaultMetricsPath)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("images.server", deploy.DefaultServerImage)
	v.SetDefault("images.embeddings", deploy.DefaultEmbeddingsImage)
	v.SetDefault("images.context_dir", ".")

	v.SetDefault("container.runtime", "")
	v.SetDefault("container.name_prefix", deploy.DefaultNamePrefix)
	v.SetDefault("container.host_port", server.DefaultPort)

	v.SetDefault("smoke.attempts", smoke.DefaultAttempts)
	v.SetDefault("smoke.interval", smoke.DefaultInterval)
	v.SetDefault("smoke.plan_file", "")
	v.SetDefault("smoke.timeout", smoke.DefaultTimeout)

	train := embed.DefaultConfig()
	v.SetDefault("train.epochs", train.Epochs)
	v.SetDefault("train.batch_size", train.BatchSize)
	v.SetDefault("train.max_vocab", train.MaxVocab)
	v.SetDefault("train.hidden_dim", train.HiddenDim)
	v.SetDefault("train.embedding_dim", train.EmbeddingDim)
	v.SetDefault("train.learning_rate", train.LearningRate)
	v.SetDefault("train.max_parameters", train.MaxParameters)
	v.SetDefault("train.seed", 0)
}

// loadConfig unmarshals the global viper instance into a types.Config.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	var c types.Config
	if err := v.Unmarshal(&c); err != nil {
		return types.Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return c, nil
}

// bindFlag binds a command flag to a configuration key.
func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s to %s: %v", flag, key, err))
	}
}

// usageArgs accepts between lo and hi positional arguments and otherwise
// fails with the command's usage line.
func usageArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < lo || len(args) > hi {
			return fmt.Errorf("usage: %s", cmd.UseLine())
		}
		return nil
	}
}
