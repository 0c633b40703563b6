// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"maps"
	"slices"
	"strconv"
)

// BuildSpec describes an image build.
type BuildSpec struct {
	Tag        string
	Dockerfile string // relative to Context; empty uses Context/Dockerfile
	Context    string
}

func (b BuildSpec) args() []string {
	args := []string{"build", "-t", b.Tag}
	if b.Dockerfile != "" {
		args = append(args, "-f", b.Dockerfile)
	}
	ctx := b.Context
	if ctx == "" {
		ctx = "."
	}
	return append(args, ctx)
}

// PortBinding publishes a container port on a host port.
type PortBinding struct {
	Host      int
	Container int
}

func (p PortBinding) String() string {
	return strconv.Itoa(p.Host) + ":" + strconv.Itoa(p.Container)
}

// Mount bind-mounts a host path into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

func (m Mount) String() string {
	s := m.Source + ":" + m.Target
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// RunSpec describes a container to run.
type RunSpec struct {
	Image  string
	Name   string
	Ports  []PortBinding
	Mounts []Mount
	Env    map[string]string

	// Args are passed to the image entrypoint.
	Args []string
}

// args renders the run command line. Detached runs keep the container
// after exit so it can be inspected; foreground runs are removed.
func (s RunSpec) args(detached bool) []string {
	args := []string{"run"}
	if detached {
		args = append(args, "-d")
	} else {
		args = append(args, "--rm")
	}
	if s.Name != "" {
		args = append(args, "--name", s.Name)
	}
	for _, p := range s.Ports {
		args = append(args, "-p", p.String())
	}
	for _, m := range s.Mounts {
		args = append(args, "-v", m.String())
	}
	for _, k := range slices.Sorted(maps.Keys(s.Env)) {
		args = append(args, "-e", k+"="+s.Env[k])
	}
	args = append(args, s.Image)
	return append(args, s.Args...)
}
