//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Images builds the arxiv-server and arxiv-embeddings container images.
func Images() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "build")
}

// Smoke starts the server container on port 8080, runs the smoke checks
// and stops the container.
func Smoke() error {
	mg.Deps(Images)
	return sh.RunV(binPath(), "up", "--port", "8080", "--data-dir", "sample_data", "--smoke", "--strict")
}
