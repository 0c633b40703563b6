// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ModelConfig records the autoencoder dimensions.
type ModelConfig struct {
	VocabSize    int `json:"vocab_size"`
	HiddenDim    int `json:"hidden_dim"`
	EmbeddingDim int `json:"embedding_dim"`
}

// EmbeddingRecord is one entry of embeddings.json.
type EmbeddingRecord struct {
	ArxivID            string    `json:"arxiv_id"`
	Embedding          []float64 `json:"embedding"`
	ReconstructionLoss float64   `json:"reconstruction_loss"`
}

// VocabularyFile is the document written to vocabulary.json.
type VocabularyFile struct {
	VocabToIdx map[string]int `json:"vocab_to_idx"`
	VocabSize  int            `json:"vocab_size"`
	TotalWords int            `json:"total_words"`
}

// TrainingLog is the document written to training_log.json.
type TrainingLog struct {
	StartTime          string  `json:"start_time"`
	EndTime            string  `json:"end_time"`
	Epochs             int     `json:"epochs"`
	FinalLoss          float64 `json:"final_loss"`
	TotalParameters    int     `json:"total_parameters"`
	PapersProcessed    int     `json:"papers_processed"`
	EmbeddingDimension int     `json:"embedding_dimension"`
}
