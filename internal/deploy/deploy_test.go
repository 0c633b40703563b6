// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deploy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-lab/internal/container"
	"github.com/pdiddy/arxiv-lab/pkg/types"
)

// fakeRuntime records calls instead of running containers.
type fakeRuntime struct {
	images   map[string]bool
	existing map[string]bool
	startErr error
	runErr   error

	builds  []container.BuildSpec
	runs    []container.RunSpec
	starts  []container.RunSpec
	stopped []string
	removed []string
	calls   int
}

func (f *fakeRuntime) Name() string { return "fake" }
func (f *fakeRuntime) Available(context.Context) bool { return true }
func (f *fakeRuntime) Exists(_ context.Context, n string) bool { f.calls++; return f.existing[n] }

func (f *fakeRuntime) ImageExists(_ context.Context, image string) error {
	f.calls++
	if f.images[image] {
		return nil
	}
	return fmt.Errorf("image %s not found", image)
}

func (f *fakeRuntime) Build(_ context.Context, spec container.BuildSpec, _ io.Writer) error {
	f.calls++
	f.builds = append(f.builds, spec)
	return nil
}

func (f *fakeRuntime) Run(_ context.Context, spec container.RunSpec, _ io.Writer) error {
	f.calls++
	f.runs = append(f.runs, spec)
	return f.runErr
}

func (f *fakeRuntime) Start(_ context.Context, spec container.RunSpec) (string, error) {
	f.calls++
	if f.startErr != nil {
		return "", f.startErr
	}
	f.starts = append(f.starts, spec)
	return "cid-1", nil
}

func (f *fakeRuntime) Stop(_ context.Context, name string) error {
	f.calls++
	f.stopped = append(f.stopped, name)
	return nil
}

func (f *fakeRuntime) Remove(_ context.Context, name string) error {
	f.calls++
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeRuntime) Logs(context.Context, string, io.Writer) error { return nil }

func newTestLauncher(rt *fakeRuntime) *Launcher {
	return NewLauncher(rt, types.Config{})
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "8080", want: 8080},
		{in: "1024", want: 1024},
		{in: "65535", want: 65535},
		{in: "1023", wantErr: true},
		{in: "65536", wantErr: true},
		{in: "0", wantErr: true},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "80a", wantErr: true},
		{in: "-8080", wantErr: true},
		{in: "+8080", wantErr: true},
		{in: " 8080", wantErr: true},
		{in: "8080.0", wantErr: true},
		{in: "99999999999999999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePort(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPort)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainerName(t *testing.T) {
	pattern := regexp.MustCompile(`^arxiv-server-8080-[0-9a-f]{8}$`)
	a := ContainerName("arxiv-server", 8080)
	b := ContainerName("", 8080)
	assert.Regexp(t, pattern, a)
	assert.Regexp(t, pattern, b)
	assert.NotEqual(t, a, b)
}

func stubSuffixes(t *testing.T, suffixes ...string) {
	t.Helper()
	orig := nameSuffix
	i := 0
	nameSuffix = func() string {
		s := suffixes[i%len(suffixes)]
		i++
		return s
	}
	t.Cleanup(func() { nameSuffix = orig })
}

func TestStartServer(t *testing.T) {
	rt := &fakeRuntime{images: map[string]bool{DefaultServerImage: true}}
	l := newTestLauncher(rt)
	dataDir := t.TempDir()

	h, err := l.StartServer(context.Background(), ServerOptions{Port: 9000, DataDir: dataDir})
	require.NoError(t, err)

	assert.Equal(t, "cid-1", h.ID)
	assert.Equal(t, 9000, h.Port)
	assert.Equal(t, "http://localhost:9000", h.URL())
	require.Len(t, rt.starts, 1)

	spec := rt.starts[0]
	assert.Equal(t, h.Name, spec.Name)
	assert.Equal(t, DefaultServerImage, spec.Image)
	assert.Equal(t, []container.PortBinding{{Host: 9000, Container: ServerContainerPort}}, spec.Ports)
	assert.Equal(t, []container.Mount{{Source: dataDir, Target: "/data", ReadOnly: true}}, spec.Mounts)
}

func TestStartServerRegeneratesTakenName(t *testing.T) {
	stubSuffixes(t, "aaaaaaaa", "bbbbbbbb")
	rt := &fakeRuntime{
		images:   map[string]bool{DefaultServerImage: true},
		existing: map[string]bool{"arxiv-server-8080-aaaaaaaa": true},
	}
	l := newTestLauncher(rt)

	h, err := l.StartServer(context.Background(), ServerOptions{Port: 8080})
	require.NoError(t, err)
	assert.Equal(t, "arxiv-server-8080-bbbbbbbb", h.Name)
	assert.Len(t, rt.starts, 1)
}

func TestStartServerAllNamesTaken(t *testing.T) {
	stubSuffixes(t, "aaaaaaaa")
	rt := &fakeRuntime{
		images:   map[string]bool{DefaultServerImage: true},
		existing: map[string]bool{"arxiv-server-8080-aaaaaaaa": true},
	}

	_, err := newTestLauncher(rt).StartServer(context.Background(), ServerOptions{Port: 8080})
	assert.ErrorIs(t, err, ErrNameCollision)
	assert.Empty(t, rt.starts)
}

func TestStartServerErrors(t *testing.T) {
	rt := &fakeRuntime{}
	l := newTestLauncher(rt)

	_, err := l.StartServer(context.Background(), ServerOptions{Port: 80})
	assert.ErrorIs(t, err, ErrInvalidPort)
	assert.Zero(t, rt.calls)

	_, err = l.StartServer(context.Background(), ServerOptions{Port: 8080})
	assert.ErrorContains(t, err, "not found")
	assert.Empty(t, rt.starts)

	rt.images = map[string]bool{DefaultServerImage: true}
	rt.startErr = errors.New("port is already allocated")
	_, err = l.StartServer(context.Background(), ServerOptions{Port: 8080})
	assert.ErrorContains(t, err, "already allocated")
}

func TestStopServer(t *testing.T) {
	rt := &fakeRuntime{}
	require.NoError(t, newTestLauncher(rt).StopServer(context.Background(), "arxiv-server-8080-abcd1234"))
	assert.Equal(t, []string{"arxiv-server-8080-abcd1234"}, rt.stopped)
	assert.Equal(t, []string{"arxiv-server-8080-abcd1234"}, rt.removed)
}

func TestBuild(t *testing.T) {
	rt := &fakeRuntime{}
	l := NewLauncher(rt, types.Config{Images: types.ImagesConfig{ContextDir: "/src"}})

	require.NoError(t, l.Build(context.Background()))
	require.Len(t, rt.builds, 2)
	assert.Equal(t, container.BuildSpec{
		Tag: DefaultServerImage, Dockerfile: "/src/docker/Dockerfile.server", Context: "/src",
	}, rt.builds[0])
	assert.Equal(t, DefaultEmbeddingsImage, rt.builds[1].Tag)
}

func TestLaunchTraining(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "papers.json")
	require.NoError(t, os.WriteFile(input, []byte(`[]`), 0o644))
	output := filepath.Join(dir, "out", "embeddings")

	rt := &fakeRuntime{}
	err := newTestLauncher(rt).LaunchTraining(context.Background(), TrainingJob{
		Input: input, OutputDir: output, Epochs: 20, BatchSize: 16,
	})
	require.NoError(t, err)

	assert.DirExists(t, output)
	require.Len(t, rt.runs, 1)
	spec := rt.runs[0]
	assert.Equal(t, DefaultEmbeddingsImage, spec.Image)
	assert.Equal(t, []container.Mount{
		{Source: input, Target: "/data/input/papers.json", ReadOnly: true},
		{Source: output, Target: "/data/output"},
	}, spec.Mounts)
	assert.Equal(t, []string{"/data/input/papers.json", "/data/output", "20", "16"}, spec.Args)
}

func TestLaunchTrainingDefaultsOmitted(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "papers.json")
	require.NoError(t, os.WriteFile(input, []byte(`[]`), 0o644))

	rt := &fakeRuntime{}
	require.NoError(t, newTestLauncher(rt).LaunchTraining(context.Background(), TrainingJob{
		Input: input, OutputDir: filepath.Join(dir, "out"),
	}))
	assert.Equal(t, []string{"/data/input/papers.json", "/data/output"}, rt.runs[0].Args)
}

func TestLaunchTrainingMissingInput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	rt := &fakeRuntime{}

	err := newTestLauncher(rt).LaunchTraining(context.Background(), TrainingJob{
		Input: filepath.Join(dir, "missing.json"), OutputDir: output,
	})
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Zero(t, rt.calls)
	assert.NoDirExists(t, output)

	err = newTestLauncher(rt).LaunchTraining(context.Background(), TrainingJob{Input: dir, OutputDir: output})
	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Zero(t, rt.calls)
}

func TestLaunchProcessor(t *testing.T) {
	output := filepath.Join(t.TempDir(), "sample")
	rt := &fakeRuntime{}

	err := newTestLauncher(rt).LaunchProcessor(context.Background(), ProcessJob{
		Query: "cat:cs.LG", Count: 10, OutputDir: output,
	})
	require.NoError(t, err)
	assert.DirExists(t, output)
	require.Len(t, rt.runs, 1)
	assert.Equal(t, DefaultServerImage, rt.runs[0].Image)
	assert.Equal(t, []string{"process", "cat:cs.LG", "10", "/data/output"}, rt.runs[0].Args)
	assert.Equal(t, []container.Mount{{Source: output, Target: "/data/output"}}, rt.runs[0].Mounts)
}

func TestLaunchProcessorInvalid(t *testing.T) {
	rt := &fakeRuntime{}
	l := newTestLauncher(rt)
	ctx := context.Background()

	assert.ErrorIs(t, l.LaunchProcessor(ctx, ProcessJob{Query: " ", Count: 1, OutputDir: t.TempDir()}), ErrInvalidJob)
	assert.ErrorIs(t, l.LaunchProcessor(ctx, ProcessJob{Query: "q", Count: 0, OutputDir: t.TempDir()}), ErrInvalidJob)
	assert.ErrorIs(t, l.LaunchProcessor(ctx, ProcessJob{Query: "q", Count: 1}), ErrInvalidJob)
	assert.Zero(t, rt.calls)
}

func TestCheckInput(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "papers.json")
	require.NoError(t, os.WriteFile(file, []byte(`[]`), 0o644))

	assert.NoError(t, CheckInput(file))
	assert.ErrorIs(t, CheckInput(filepath.Join(dir, "nope.json")), ErrInputNotFound)
	assert.ErrorIs(t, CheckInput(dir), ErrInputNotFound)
}
