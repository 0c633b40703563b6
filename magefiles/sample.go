//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	sampleQuery = "cat:cs.LG"
	sampleCount = "20"
	sampleDir   = "sample_data"
)

// Sample fetches a small cs.LG corpus into sample_data/.
func Sample() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "process", sampleQuery, sampleCount, sampleDir)
}

// Train trains embeddings on sample_data/papers.json into output/embeddings.
func Train() error {
	mg.Deps(Build)
	if err := sh.RunV(binPath(), "train", sampleDir+"/papers.json", "output/embeddings", "20", "16"); err != nil {
		return err
	}
	fmt.Println("Embeddings written to output/embeddings")
	return nil
}
