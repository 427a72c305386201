//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Filter selects COVID-19 papers from data/metadata.csv and resolves full text.
func Filter() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "filter")
}

// Enrich adds topics, summaries, keywords, drug mentions and clinical flags.
func Enrich() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "enrich")
}

// Publish writes the enriched corpus and treatments to the search index.
func Publish() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "publish")
}

// Pipeline runs filter, enrich and publish in one process.
func Pipeline() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "run")
}

// Drugs prints the most mentioned treatments in the enriched corpus.
func Drugs() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "drugs")
}
