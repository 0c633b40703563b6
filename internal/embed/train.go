// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// Output file names written to the output directory.
const (
	ModelFile      = "model.json"
	EmbeddingsFile = "embeddings.json"
	VocabularyFile = "vocabulary.json"
	TrainingLog    = "training_log.json"
)

// TimestampLayout formats training start and end times.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

var (
	// ErrNoValidAbstracts is returned when no paper yields any token.
	ErrNoValidAbstracts = errors.New("no valid abstracts")

	// ErrTooManyParameters is returned when the model exceeds MaxParameters.
	ErrTooManyParameters = errors.New("too many parameters")
)

// DefaultConfig returns the trainer defaults.
func DefaultConfig() types.TrainConfig {
	return types.TrainConfig{
		Epochs:        50,
		BatchSize:     32,
		MaxVocab:      5000,
		HiddenDim:     256,
		EmbeddingDim:  64,
		LearningRate:  1e-3,
		MaxParameters: 2_000_000,
	}
}

func withDefaults(cfg types.TrainConfig) types.TrainConfig {
	def := DefaultConfig()
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxVocab <= 0 {
		cfg.MaxVocab = def.MaxVocab
	}
	if cfg.HiddenDim <= 0 {
		cfg.HiddenDim = def.HiddenDim
	}
	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = def.EmbeddingDim
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.MaxParameters <= 0 {
		cfg.MaxParameters = def.MaxParameters
	}
	return cfg
}

// ModelDocument is the layout of model.json. State uses the layer names of
// the equivalent PyTorch Sequential modules.
type ModelDocument struct {
	State      map[string]any    `json:"model_state_dict"`
	VocabToIdx map[string]int    `json:"vocab_to_idx"`
	Config     types.ModelConfig `json:"model_config"`
}

// Trainer trains an autoencoder on an input file and writes its artifacts.
type Trainer struct {
	Config types.TrainConfig

	// Out receives progress lines. Nil discards them.
	Out io.Writer

	// Now defaults to time.Now.
	Now func() time.Time
}

// Result summarises a completed training run.
type Result struct {
	Papers     int
	VocabSize  int
	Parameters int
	FinalLoss  float64
}

// Train loads inputPath, trains the model and writes the four output files
// into outputDir, creating it if needed.
func (t *Trainer) Train(ctx context.Context, inputPath, outputDir string) (Result, error) {
	cfg := withDefaults(t.Config)
	out := t.Out
	if out == nil {
		out = io.Discard
	}
	now := t.Now
	if now == nil {
		now = time.Now
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	papers, err := LoadPapers(inputPath)
	if err != nil {
		return Result{}, err
	}
	docs := Documents(papers)
	if len(docs) == 0 {
		return Result{}, ErrNoValidAbstracts
	}
	logger.Debug(ctx, "loaded papers", zap.Int("input", len(papers)), zap.Int("usable", len(docs)))

	vocab := BuildVocabulary(docs, cfg.MaxVocab)
	fmt.Fprintf(out, "Vocabulary size: %d\n", vocab.Size())

	bags := make([][]int, len(docs))
	for i, d := range docs {
		bags[i] = vocab.Bag(d.Tokens)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	model := NewAutoencoder(vocab.Size(), cfg.HiddenDim, cfg.EmbeddingDim, rng)
	params := model.Parameters()
	fmt.Fprintf(out, "Total parameters: %d\n", params)
	if params > cfg.MaxParameters {
		return Result{}, fmt.Errorf("%w: %d > %d", ErrTooManyParameters, params, cfg.MaxParameters)
	}

	start := now().UTC()
	finalLoss, err := t.fit(ctx, model, bags, cfg, rng, out)
	if err != nil {
		return Result{}, err
	}
	end := now().UTC()

	res := Result{Papers: len(docs), VocabSize: vocab.Size(), Parameters: params, FinalLoss: finalLoss}
	if err := writeOutputs(outputDir, model, vocab, docs, bags, cfg, res, start, end); err != nil {
		return Result{}, err
	}
	logger.Info(ctx, "training complete",
		zap.Int("papers", res.Papers),
		zap.Int("vocab_size", res.VocabSize),
		zap.Float64("final_loss", res.FinalLoss),
		zap.String("output_dir", outputDir),
	)
	return res, nil
}

// fit runs the epochs and returns the loss of the last mini-batch.
func (t *Trainer) fit(ctx context.Context, model *Autoencoder, bags [][]int, cfg types.TrainConfig, rng *rand.Rand, out io.Writer) (float64, error) {
	grads := newGradients(model)
	opt := NewAdam(model, cfg.LearningRate)

	var last float64
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		perm := rng.Perm(len(bags))
		var sum float64
		batches := 0
		for i := 0; i < len(perm); i += cfg.BatchSize {
			end := min(i+cfg.BatchSize, len(perm))
			batch := make([][]int, 0, end-i)
			for _, idx := range perm[i:end] {
				batch = append(batch, bags[idx])
			}
			last = model.trainBatch(batch, grads, opt)
			sum += last
			batches++
		}

		if epoch == 1 || epoch%10 == 0 || epoch == cfg.Epochs {
			fmt.Fprintf(out, "Epoch %d/%d, Loss: %.4f\n", epoch, cfg.Epochs, sum/float64(batches))
		}
	}
	return last, nil
}

func writeOutputs(dir string, model *Autoencoder, vocab Vocabulary, docs []Document, bags [][]int,
	cfg types.TrainConfig, res Result, start, end time.Time) error {
	modelDoc := ModelDocument{
		State:      stateDict(model),
		VocabToIdx: vocab.Index,
		Config: types.ModelConfig{
			VocabSize:    vocab.Size(),
			HiddenDim:    cfg.HiddenDim,
			EmbeddingDim: cfg.EmbeddingDim,
		},
	}
	if err := writeJSON(filepath.Join(dir, ModelFile), modelDoc); err != nil {
		return err
	}

	records := make([]types.EmbeddingRecord, len(docs))
	for i, d := range docs {
		emb, loss := model.Reconstruct(bags[i])
		records[i] = types.EmbeddingRecord{ArxivID: d.ID, Embedding: emb, ReconstructionLoss: loss}
	}
	if err := writeJSON(filepath.Join(dir, EmbeddingsFile), records); err != nil {
		return err
	}

	vf := types.VocabularyFile{VocabToIdx: vocab.Index, VocabSize: vocab.Size(), TotalWords: vocab.TotalWords}
	if err := writeJSON(filepath.Join(dir, VocabularyFile), vf); err != nil {
		return err
	}

	log := types.TrainingLog{
		StartTime:          start.Format(TimestampLayout),
		EndTime:            end.Format(TimestampLayout),
		Epochs:             cfg.Epochs,
		FinalLoss:          res.FinalLoss,
		TotalParameters:    res.Parameters,
		PapersProcessed:    res.Papers,
		EmbeddingDimension: cfg.EmbeddingDim,
	}
	return writeJSON(filepath.Join(dir, TrainingLog), log)
}

func stateDict(m *Autoencoder) map[string]any {
	names := []string{"encoder.0", "encoder.2", "decoder.0", "decoder.2"}
	state := make(map[string]any, 2*len(names))
	for i, l := range m.layers() {
		state[names[i]+".weight"] = l.W
		state[names[i]+".bias"] = l.B
	}
	return state
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
