// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container wraps the docker and podman command-line clients:
// runtime detection, image builds, foreground and detached runs, and
// container teardown.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-lab/internal/logger"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// ErrNoRuntime is returned when neither docker nor podman is usable.
var ErrNoRuntime = errors.New("no container runtime available")

// Runtime provides container operations for one container binary.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists returns nil when the image is present locally.
	ImageExists(ctx context.Context, image string) error

	// Build builds an image, streaming build output to out.
	Build(ctx context.Context, spec BuildSpec, out io.Writer) error

	// Run runs a container in the foreground with --rm and streams its
	// output to out.
	Run(ctx context.Context, spec RunSpec, out io.Writer) error

	// Start runs a detached container and returns its ID.
	Start(ctx context.Context, spec RunSpec) (string, error)

	// Stop stops a running container.
	Stop(ctx context.Context, name string) error

	// Remove deletes a stopped container.
	Remove(ctx context.Context, name string) error

	// Exists reports whether a container with the given name exists in
	// any state.
	Exists(ctx context.Context, name string) bool

	// Logs writes the container's output so far to out.
	Logs(ctx context.Context, name string, out io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) (string, error)
	RunStreamed(ctx context.Context, name string, args []string, out io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return string(out), nil
}

func (o *osExecutor) RunStreamed(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Build(ctx context.Context, spec BuildSpec, out io.Writer) error {
	args := spec.args()
	logger.Debug(ctx, "container build", zap.String("runtime", r.bin), zap.Strings("args", args))
	if err := r.exec.RunStreamed(ctx, r.bin, args, writerOrDiscard(out)); err != nil {
		return fmt.Errorf("building image %s with %s: %w", spec.Tag, r.bin, err)
	}
	return nil
}

func (r *runtime) Run(ctx context.Context, spec RunSpec, out io.Writer) error {
	args := spec.args(false)
	logger.Debug(ctx, "container run", zap.String("runtime", r.bin), zap.Strings("args", args))
	if err := r.exec.RunStreamed(ctx, r.bin, args, writerOrDiscard(out)); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, spec.Image, err)
	}
	return nil
}

func (r *runtime) Start(ctx context.Context, spec RunSpec) (string, error) {
	args := spec.args(true)
	logger.Debug(ctx, "container start", zap.String("runtime", r.bin), zap.Strings("args", args))
	out, err := r.exec.Output(ctx, r.bin, args...)
	if err != nil {
		return "", fmt.Errorf("starting %s container %s: %w", r.bin, spec.Image, err)
	}
	return strings.TrimSpace(out), nil
}

func (r *runtime) Stop(ctx context.Context, name string) error {
	if _, err := r.exec.Output(ctx, r.bin, "stop", name); err != nil {
		return fmt.Errorf("stopping container %s: %w", name, err)
	}
	return nil
}

func (r *runtime) Remove(ctx context.Context, name string) error {
	if _, err := r.exec.Output(ctx, r.bin, "rm", name); err != nil {
		return fmt.Errorf("removing container %s: %w", name, err)
	}
	return nil
}

func (r *runtime) Exists(ctx context.Context, name string) bool {
	return r.exec.RunSilent(ctx, r.bin, "container", "inspect", name) == nil
}

func (r *runtime) Logs(ctx context.Context, name string, out io.Writer) error {
	if err := r.exec.RunStreamed(ctx, r.bin, []string{"logs", name}, writerOrDiscard(out)); err != nil {
		return fmt.Errorf("reading logs of %s: %w", name, err)
	}
	return nil
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns
// ErrNoRuntime if neither runtime is available.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, defaultExec)
}

func detectRuntime(ctx context.Context, exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf("%w: neither %s nor %s found or operational",
		ErrNoRuntime, binDocker, binPodman)
}

// NewRuntime returns the named runtime, or detects one when name is empty.
func NewRuntime(ctx context.Context, name string) (Runtime, error) {
	return newRuntime(ctx, defaultExec, name)
}

func newRuntime(ctx context.Context, exec executor, name string) (Runtime, error) {
	var rt *runtime
	switch name {
	case "":
		return detectRuntime(ctx, exec)
	case binDocker:
		rt = newDockerRuntime(exec)
	case binPodman:
		rt = newPodmanRuntime(exec)
	default:
		return nil, fmt.Errorf("unknown container runtime %q (want %s or %s)", name, binDocker, binPodman)
	}
	if !rt.Available(ctx) {
		return nil, fmt.Errorf("%w: %s not found or not operational", ErrNoRuntime, name)
	}
	return rt, nil
}
