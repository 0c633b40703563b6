package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "arxiv-lab/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for the corpus processor's arXiv client.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the arXiv query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the base backoff delay on HTTP 429 (default 3s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// ServerConfig holds settings for the API server.
type ServerConfig struct {
	// Port is the TCP port the server listens on (default 8080).
	Port int `json:"port" yaml:"port" mapstructure:"port"`

	// DataDir contains papers.json and corpus_analysis.json.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// DBPath, when set, loads the catalog from a SQLite index instead of DataDir.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string `json:"metrics_path" yaml:"metrics_path" mapstructure:"metrics_path"`

	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown after a signal.
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ImagesConfig names the container images built and run by arxiv-lab.
type ImagesConfig struct {
	Server     string `json:"server" yaml:"server" mapstructure:"server"`
	Embeddings string `json:"embeddings" yaml:"embeddings" mapstructure:"embeddings"`

	// ContextDir is the docker build context (the repository root).
	ContextDir string `json:"context_dir" yaml:"context_dir" mapstructure:"context_dir"`
}

// ContainerConfig holds settings for the container lifecycle wrapper.
type ContainerConfig struct {
	// Runtime forces "docker" or "podman"; empty means detect.
	Runtime string `json:"runtime" yaml:"runtime" mapstructure:"runtime"`

	// NamePrefix is prepended to generated server container names.
	NamePrefix string `json:"name_prefix" yaml:"name_prefix" mapstructure:"name_prefix"`

	// HostPort is the default host port for the server container (default 8080).
	HostPort int `json:"host_port" yaml:"host_port" mapstructure:"host_port"`
}

// SmokeConfig holds settings for the smoke-test harness.
type SmokeConfig struct {
	// Attempts is the readiness poll budget (default 20).
	Attempts int `json:"attempts" yaml:"attempts" mapstructure:"attempts"`

	// Interval is the fixed delay between readiness attempts (default 1s).
	Interval time.Duration `json:"interval" yaml:"interval" mapstructure:"interval"`

	// PlanFile optionally replaces the built-in check plan.
	PlanFile string `json:"plan_file" yaml:"plan_file" mapstructure:"plan_file"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// TrainConfig holds settings for the embeddings trainer.
type TrainConfig struct {
	Epochs        int     `json:"epochs" yaml:"epochs" mapstructure:"epochs"`
	BatchSize     int     `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	MaxVocab      int     `json:"max_vocab" yaml:"max_vocab" mapstructure:"max_vocab"`
	HiddenDim     int     `json:"hidden_dim" yaml:"hidden_dim" mapstructure:"hidden_dim"`
	EmbeddingDim  int     `json:"embedding_dim" yaml:"embedding_dim" mapstructure:"embedding_dim"`
	LearningRate  float64 `json:"learning_rate" yaml:"learning_rate" mapstructure:"learning_rate"`
	MaxParameters int     `json:"max_parameters" yaml:"max_parameters" mapstructure:"max_parameters"`

	// Seed makes weight initialisation and shuffling reproducible.
	Seed uint64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// Config groups all component configurations. It is populated by viper from
// defaults, the config file, ARXIVLAB_* environment variables, and flags.
type Config struct {
	// Environment selects the logger profile: development or production.
	Environment string `json:"environment" yaml:"environment" mapstructure:"environment"`

	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Images    ImagesConfig    `json:"images" yaml:"images" mapstructure:"images"`
	Container ContainerConfig `json:"container" yaml:"container" mapstructure:"container"`
	Smoke     SmokeConfig     `json:"smoke" yaml:"smoke" mapstructure:"smoke"`
	Train     TrainConfig     `json:"train" yaml:"train" mapstructure:"train"`
}
