// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deploy manages the arxiv-lab containers: building the images,
// starting and stopping the API server on a validated host port, and
// launching the processor and trainer as one-shot jobs.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/container"
	"github.com/pdiddy/arxiv-lab/internal/logger"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// Port range accepted for the published server port.
const (
	MinPort = 1024
	MaxPort = 65535
)

// Defaults for images, names and in-container paths.
const (
	DefaultServerImage     = "arxiv-server:latest"
	DefaultEmbeddingsImage = "arxiv-embeddings:latest"
	DefaultNamePrefix      = "arxiv-server"

	ServerDockerfile     = "docker/Dockerfile.server"
	EmbeddingsDockerfile = "docker/Dockerfile.embeddings"

	// ServerContainerPort is the port the server listens on inside its container.
	ServerContainerPort = 8080

	containerDataDir   = "/data"
	containerInputDir  = "/data/input"
	containerOutputDir = "/data/output"

	maxNameAttempts = 5
)

var (
	// ErrInvalidPort is returned for a port that is not an integer in
	// [MinPort, MaxPort].
	ErrInvalidPort = errors.New("invalid port")

	// ErrInputNotFound is returned when a job's input file does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrInvalidJob is returned for a job with missing or non-positive arguments.
	ErrInvalidJob = errors.New("invalid job arguments")

	// ErrNameCollision is returned when no free container name was found.
	ErrNameCollision = errors.New("could not find an unused container name")
)

var portPattern = regexp.MustCompile(`^[0-9]+$`)

// ParsePort validates a user-supplied port string.
func ParsePort(s string) (int, error) {
	if !portPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPort, s)
	}
	port, err := strconv.Atoi(s)
	if err != nil || port < MinPort || port > MaxPort {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", ErrInvalidPort, s, MinPort, MaxPort)
	}
	return port, nil
}

// nameSuffix returns 8 random hex characters.
var nameSuffix = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ContainerName returns "<prefix>-<port>-<8 hex chars>".
func ContainerName(prefix string, port int) string {
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return fmt.Sprintf("%s-%d-%s", prefix, port, nameSuffix())
}

// Launcher runs arxiv-lab containers through a container runtime.
type Launcher struct {
	Runtime container.Runtime
	Images  types.ImagesConfig

	// NamePrefix prefixes generated server container names.
	NamePrefix string

	// Out receives build and job output. Nil discards it.
	Out io.Writer
}

// NewLauncher returns a Launcher for rt with defaults filled in from cfg.
func NewLauncher(rt container.Runtime, cfg types.Config) *Launcher {
	images := cfg.Images
	if images.Server == "" {
		images.Server = DefaultServerImage
	}
	if images.Embeddings == "" {
		images.Embeddings = DefaultEmbeddingsImage
	}
	if images.ContextDir == "" {
		images.ContextDir = "."
	}
	prefix := cfg.Container.NamePrefix
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return &Launcher{Runtime: rt, Images: images, NamePrefix: prefix}
}

func (l *Launcher) out() io.Writer {
	if l.Out == nil {
		return io.Discard
	}
	return l.Out
}

// Build builds the server and embeddings images.
func (l *Launcher) Build(ctx context.Context) error {
	specs := []container.BuildSpec{
		{Tag: l.Images.Server, Dockerfile: filepath.Join(l.Images.ContextDir, ServerDockerfile), Context: l.Images.ContextDir},
		{Tag: l.Images.Embeddings, Dockerfile: filepath.Join(l.Images.ContextDir, EmbeddingsDockerfile), Context: l.Images.ContextDir},
	}
	for _, spec := range specs {
		logger.Info(ctx, "building image", zap.String("tag", spec.Tag), zap.String("runtime", l.Runtime.Name()))
		if err := l.Runtime.Build(ctx, spec, l.out()); err != nil {
			return err
		}
	}
	return nil
}

// ServerOptions configures StartServer.
type ServerOptions struct {
	Port int

	// DataDir, when set, is mounted read-only as the server's data directory.
	DataDir string
}

// ServerHandle identifies a started server container.
type ServerHandle struct {
	Name string
	ID   string
	Port int
}

// URL is the base URL of the server on the host.
func (h ServerHandle) URL() string {
	return "http://localhost:" + strconv.Itoa(h.Port)
}

// StartServer starts one detached server container publishing opts.Port.
// A generated name that is already taken is regenerated, up to a fixed
// number of attempts.
func (l *Launcher) StartServer(ctx context.Context, opts ServerOptions) (ServerHandle, error) {
	if opts.Port < MinPort || opts.Port > MaxPort {
		return ServerHandle{}, fmt.Errorf("%w: %d must be between %d and %d", ErrInvalidPort, opts.Port, MinPort, MaxPort)
	}
	if err := l.Runtime.ImageExists(ctx, l.Images.Server); err != nil {
		return ServerHandle{}, fmt.Errorf("%w (run the build command first)", err)
	}

	name := ""
	for range maxNameAttempts {
		candidate := ContainerName(l.NamePrefix, opts.Port)
		if !l.Runtime.Exists(ctx, candidate) {
			name = candidate
			break
		}
		logger.Debug(ctx, "container name taken", zap.String("name", candidate))
	}
	if name == "" {
		return ServerHandle{}, ErrNameCollision
	}

	spec := container.RunSpec{
		Image: l.Images.Server,
		Name:  name,
		Ports: []container.PortBinding{{Host: opts.Port, Container: ServerContainerPort}},
	}
	if opts.DataDir != "" {
		abs, err := filepath.Abs(opts.DataDir)
		if err != nil {
			return ServerHandle{}, fmt.Errorf("resolving data directory: %w", err)
		}
		spec.Mounts = append(spec.Mounts, container.Mount{Source: abs, Target: containerDataDir, ReadOnly: true})
	}

	id, err := l.Runtime.Start(ctx, spec)
	if err != nil {
		return ServerHandle{}, err
	}
	logger.Info(ctx, "server container started",
		zap.String("name", name),
		zap.String("id", id),
		zap.Int("port", opts.Port),
	)
	return ServerHandle{Name: name, ID: id, Port: opts.Port}, nil
}

// StopServer stops and removes the named container.
func (l *Launcher) StopServer(ctx context.Context, name string) error {
	if err := l.Runtime.Stop(ctx, name); err != nil {
		return err
	}
	if err := l.Runtime.Remove(ctx, name); err != nil {
		return err
	}
	logger.Info(ctx, "server container removed", zap.String("name", name))
	return nil
}

// TrainingJob describes one containerised training run.
type TrainingJob struct {
	Input     string
	OutputDir string
	Epochs    int
	BatchSize int
}

// LaunchTraining runs the embeddings image against job.Input. The input
// file is checked before the runtime is touched; the output directory is
// created if needed.
func (l *Launcher) LaunchTraining(ctx context.Context, job TrainingJob) error {
	if job.Input == "" || job.OutputDir == "" {
		return fmt.Errorf("%w: input file and output directory are required", ErrInvalidJob)
	}
	if job.Epochs < 0 || job.BatchSize < 0 {
		return fmt.Errorf("%w: epochs and batch size must be positive", ErrInvalidJob)
	}
	if err := CheckInput(job.Input); err != nil {
		return err
	}
	input, err := filepath.Abs(job.Input)
	if err != nil {
		return fmt.Errorf("resolving input: %w", err)
	}
	output, err := prepareOutput(job.OutputDir)
	if err != nil {
		return err
	}

	target := containerInputDir + "/" + filepath.Base(input)
	args := []string{target, containerOutputDir}
	if job.Epochs > 0 {
		args = append(args, strconv.Itoa(job.Epochs))
		if job.BatchSize > 0 {
			args = append(args, strconv.Itoa(job.BatchSize))
		}
	}

	spec := container.RunSpec{
		Image: l.Images.Embeddings,
		Mounts: []container.Mount{
			{Source: input, Target: target, ReadOnly: true},
			{Source: output, Target: containerOutputDir},
		},
		Args: args,
	}
	logger.Info(ctx, "launching training job",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("epochs", job.Epochs),
		zap.Int("batch_size", job.BatchSize),
	)
	return l.Runtime.Run(ctx, spec, l.out())
}

// CheckInput returns ErrInputNotFound unless path is an existing regular
// file.
func CheckInput(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	return nil
}

// ProcessJob describes one containerised corpus processing run.
type ProcessJob struct {
	Query     string
	Count     int
	OutputDir string
}

// LaunchProcessor runs the corpus processor in the server image, writing
// its files into job.OutputDir.
func (l *Launcher) LaunchProcessor(ctx context.Context, job ProcessJob) error {
	if strings.TrimSpace(job.Query) == "" {
		return fmt.Errorf("%w: query is required", ErrInvalidJob)
	}
	if job.Count <= 0 {
		return fmt.Errorf("%w: count must be positive", ErrInvalidJob)
	}
	output, err := prepareOutput(job.OutputDir)
	if err != nil {
		return err
	}

	spec := container.RunSpec{
		Image:  l.Images.Server,
		Mounts: []container.Mount{{Source: output, Target: containerOutputDir}},
		Args:   []string{"process", job.Query, strconv.Itoa(job.Count), containerOutputDir},
	}
	logger.Info(ctx, "launching processor job",
		zap.String("query", job.Query),
		zap.Int("count", job.Count),
		zap.String("output", output),
	)
	return l.Runtime.Run(ctx, spec, l.out())
}

func prepareOutput(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("%w: output directory is required", ErrInvalidJob)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return abs, nil
}
