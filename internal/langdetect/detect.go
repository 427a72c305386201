// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package langdetect guesses the language of a document's full text.
// The corpus filter only needs to know whether a text is English; the
// default detector is backed by lingua's n-gram language models.
package langdetect

import (
	"github.com/pemistahl/lingua-go"
)

// English is the language name the corpus filter keeps.
const English = "English"

const (
	// minConfidence must be exceeded for a detected language to be trusted.
	minConfidence = 90.0

	// maxGuesses bounds the ranked languages kept in a Result.
	maxGuesses = 3
)

// Guess is one candidate language with a confidence between 0 and 100.
type Guess struct {
	Name       string
	Confidence float64
}

// Result is a ranked detection outcome.
type Result struct {
	Reliable  bool
	Languages []Guess
}

// Detector guesses the language of text.
type Detector interface {
	Detect(text string) Result
}

// Resolve picks the language the corpus filter should record: English when
// the result is unreliable or no language clears the confidence bar,
// otherwise the first language that does.
func Resolve(r Result) string {
	if !r.Reliable {
		return English
	}
	for _, g := range r.Languages {
		if g.Confidence > minConfidence {
			return g.Name
		}
	}
	return English
}

// Language runs d on text and resolves the result.
func Language(d Detector, text string) string {
	return Resolve(d.Detect(text))
}

// LinguaDetector detects languages with lingua. It is safe for concurrent
// use; language models are loaded lazily on first use.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

// NewLinguaDetector builds a detector restricted to langs, or covering
// every language lingua supports when langs is empty.
func NewLinguaDetector(langs ...lingua.Language) *LinguaDetector {
	b := lingua.NewLanguageDetectorBuilder()
	var builder lingua.LanguageDetectorBuilder
	if len(langs) == 0 {
		builder = b.FromAllLanguages()
	} else {
		builder = b.FromLanguages(langs...)
	}
	return &LinguaDetector{detector: builder.Build()}
}

// Detect implements Detector. A text lingua cannot decide on is
// unreliable; otherwise the top confidences are scaled to 0-100.
func (d *LinguaDetector) Detect(text string) Result {
	if _, ok := d.detector.DetectLanguageOf(text); !ok {
		return Result{}
	}
	values := d.detector.ComputeLanguageConfidenceValues(text)
	out := Result{Reliable: true}
	for _, v := range values {
		if len(out.Languages) == maxGuesses || v.Value() <= 0 {
			break
		}
		out.Languages = append(out.Languages, Guess{
			Name:       v.Language().String(),
			Confidence: 100 * v.Value(),
		})
	}
	return out
}
