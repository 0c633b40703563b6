// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/arxiv-lab/internal/embed"
)

var trainCmd = &cobra.Command{
	Use:   "train <input.json> <output_dir> [epochs] [batch_size]",
	Short: "Train bag-of-words embeddings over paper abstracts",
	Long: `Train builds a vocabulary from the abstracts in the input file, trains a
bag-of-words autoencoder, and writes model.json, embeddings.json,
vocabulary.json and training_log.json to the output directory.

Epochs default to 50 and the batch size to 32.`,
	Args: usageArgs(2, 4),
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().Int("max-vocab", 5000, "vocabulary size cap")
	trainCmd.Flags().Int("hidden-dim", 256, "hidden layer width")
	trainCmd.Flags().Int("embedding-dim", 64, "embedding dimension")
	trainCmd.Flags().Float64("learning-rate", 1e-3, "Adam learning rate")
	trainCmd.Flags().Uint64("seed", 0, "random seed for initialisation and shuffling")

	bindFlag(trainCmd, "train.max_vocab", "max-vocab")
	bindFlag(trainCmd, "train.hidden_dim", "hidden-dim")
	bindFlag(trainCmd, "train.embedding_dim", "embedding-dim")
	bindFlag(trainCmd, "train.learning_rate", "learning-rate")
	bindFlag(trainCmd, "train.seed", "seed")

	rootCmd.AddCommand(trainCmd)
}

// parseTrainArgs reads the optional epochs and batch size, falling back to
// the given defaults.
func parseTrainArgs(args []string, epochs, batchSize int) (int, int, error) {
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("epochs must be a positive integer, got %q", args[2])
		}
		epochs = n
	}
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("batch size must be a positive integer, got %q", args[3])
		}
		batchSize = n
	}
	return epochs, batchSize, nil
}

func runTrain(cmd *cobra.Command, args []string) error {
	tcfg := cfg.Train
	epochs, batchSize, err := parseTrainArgs(args, tcfg.Epochs, tcfg.BatchSize)
	if err != nil {
		return err
	}
	tcfg.Epochs, tcfg.BatchSize = epochs, batchSize

	t := &embed.Trainer{Config: tcfg, Out: cmd.OutOrStdout()}
	res, err := t.Train(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Trained on %d papers (vocabulary %d, %d parameters), final loss %.4f\n",
		res.Papers, res.VocabSize, res.Parameters, res.FinalLoss)
	return nil
}
