// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs the enrichment stages over a filtered corpus: topic
// scoring, clinical classification and summaries per document in a worker
// pool, then phrase training, keyword extraction and drug-mention counting
// over the whole batch.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/cord-engine/internal/clinical"
	"github.com/pdiddy/cord-engine/internal/keywords"
	"github.com/pdiddy/cord-engine/internal/mentions"
	"github.com/pdiddy/cord-engine/internal/observability"
	"github.com/pdiddy/cord-engine/internal/phrases"
	"github.com/pdiddy/cord-engine/internal/store"
	"github.com/pdiddy/cord-engine/internal/summarize"
	"github.com/pdiddy/cord-engine/internal/textproc"
	"github.com/pdiddy/cord-engine/internal/topics"
	"github.com/pdiddy/cord-engine/pkg/types"
)

// Pipeline holds the services the enrichment stages use. Scorer,
// Classifier and Tokenizer are required. A nil Summarizer skips summaries,
// a nil Drugs registry skips mention counting, and a nil Store disables
// caching of keywords and summaries.
type Pipeline struct {
	Tokenizer  textproc.Tokenizer
	Scorer     *topics.Scorer
	Classifier *clinical.Classifier
	Summarizer summarize.Summarizer
	Drugs      *mentions.Registry
	Store      *store.Store

	Phrases          phrases.Options
	PhraseModelFile  string
	ReusePhraseModel bool

	NumKeywords int
	ChunkSize   int
	Workers     int

	Log     zerolog.Logger
	Metrics *observability.Metrics

	// Progress receives one line per stage. Defaults to io.Discard.
	Progress io.Writer
}

// Result is the enriched corpus and the batch-level drug counts.
type Result struct {
	Documents []types.Document
	Counts    *mentions.Counts
	Model     *phrases.Model
}

func (p *Pipeline) progress() io.Writer {
	if p.Progress == nil {
		return io.Discard
	}
	return p.Progress
}

func (p *Pipeline) stage(name string, start time.Time) {
	if p.Metrics != nil {
		p.Metrics.ObserveStage(name, start)
	}
	p.Log.Info().Str("stage", name).Dur("elapsed", time.Since(start)).Msg("stage complete")
}

// Run enriches docs and returns copies; docs itself is not modified.
func (p *Pipeline) Run(ctx context.Context, docs []types.Document) (Result, error) {
	if p.Tokenizer == nil || p.Scorer == nil || p.Classifier == nil {
		return Result{}, errors.New("enrich: tokenizer, scorer and classifier are required")
	}
	w := p.progress()

	cached := map[string]store.Summary{}
	if p.Store != nil && p.Summarizer != nil {
		var err error
		if cached, err = p.Store.Summaries(ctx); err != nil {
			return Result{}, fmt.Errorf("loading cached summaries: %w", err)
		}
	}

	start := time.Now()
	out, err := Parallel(ctx, docs, p.Workers, func(ctx context.Context, d types.Document) (types.Document, error) {
		return p.enrichOne(ctx, d, cached)
	})
	if err != nil {
		return Result{}, fmt.Errorf("per-document enrichment: %w", err)
	}
	p.stage("documents", start)
	fmt.Fprintf(w, "scored %d documents\n", len(out))

	if err := p.storeSummaries(ctx, out, cached); err != nil {
		return Result{}, err
	}

	start = time.Now()
	model, err := p.phraseModel(docs)
	if err != nil {
		return Result{}, err
	}
	p.stage("phrases", start)
	fmt.Fprintf(w, "phrase model: %d vocabulary entries\n", model.VocabSize())

	start = time.Now()
	if out, err = p.keywords(ctx, out, model); err != nil {
		return Result{}, err
	}
	p.stage("keywords", start)
	fmt.Fprintf(w, "keywords assigned to %d documents\n", len(out))

	counts := mentions.NewCounts()
	if p.Drugs != nil {
		start = time.Now()
		counts = mentions.Count(p.Tokenizer, p.Drugs, out)
		out = mentions.Assign(out, counts)
		p.stage("mentions", start)
		fmt.Fprintf(w, "drug mentions: %d drugs found\n", len(counts.Drugs()))
	}

	p.record(out, counts)
	return Result{Documents: out, Counts: counts, Model: model}, nil
}

// enrichOne runs the per-document stages on a private copy.
func (p *Pipeline) enrichOne(ctx context.Context, d types.Document, cached map[string]store.Summary) (types.Document, error) {
	d = p.Scorer.Apply(d)
	d = p.Classifier.Apply(d)

	if p.Summarizer == nil {
		return d, nil
	}
	if s, ok := cached[d.ID]; ok {
		d.Summary, d.SummaryCleaned = s.Raw, s.Cleaned
		return d, nil
	}
	raw, err := summarize.Summarize(ctx, p.Summarizer, d.Text)
	if err != nil {
		return d, fmt.Errorf("document %s: %w", d.ID, err)
	}
	d.Summary = raw
	d.SummaryCleaned = summarize.Clean(p.Tokenizer, raw)
	return d, nil
}

func (p *Pipeline) storeSummaries(ctx context.Context, docs []types.Document, cached map[string]store.Summary) error {
	if p.Summarizer == nil {
		return nil
	}
	fresh := make(map[string]store.Summary)
	for _, d := range docs {
		if _, ok := cached[d.ID]; !ok {
			fresh[d.ID] = store.Summary{Raw: d.Summary, Cleaned: d.SummaryCleaned}
		}
	}
	if p.Metrics != nil {
		p.Metrics.SummariesComputed.Add(float64(len(fresh)))
	}
	p.Log.Debug().Int("computed", len(fresh)).Int("cached", len(docs)-len(fresh)).Msg("summaries")
	if p.Store == nil || len(fresh) == 0 {
		return nil
	}
	if err := p.Store.MergeSummaries(ctx, fresh); err != nil {
		return fmt.Errorf("storing summaries: %w", err)
	}
	return nil
}

// phraseModel loads the saved model when reuse is enabled and it exists,
// otherwise trains on docs and saves the result.
func (p *Pipeline) phraseModel(docs []types.Document) (*phrases.Model, error) {
	if p.ReusePhraseModel && p.PhraseModelFile != "" {
		m, err := phrases.Load(p.PhraseModelFile)
		if err == nil {
			p.Log.Info().Str("path", p.PhraseModelFile).Msg("reusing phrase model")
			return m, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading phrase model: %w", err)
		}
	}

	opts := p.Phrases
	if opts.MinCount == 0 && opts.Threshold == 0 {
		opts = phrases.DefaultOptions()
	}
	m := phrases.Train(phrases.Corpus(p.Tokenizer, docs), opts)
	if p.PhraseModelFile != "" {
		if err := m.Save(p.PhraseModelFile); err != nil {
			return nil, fmt.Errorf("saving phrase model: %w", err)
		}
	}
	return m, nil
}

// keywords extracts keywords, merges them into the store and assigns the
// merged lists.
func (p *Pipeline) keywords(ctx context.Context, docs []types.Document, model *phrases.Model) ([]types.Document, error) {
	ex := keywords.Extractor{
		Tokenizer:   p.Tokenizer,
		Model:       model,
		NumKeywords: p.NumKeywords,
		ChunkSize:   p.ChunkSize,
	}
	kw := ex.Extract(docs)
	if p.Store == nil {
		return keywords.Assign(docs, kw), nil
	}

	if err := p.Store.MergeKeywords(ctx, kw); err != nil {
		return nil, fmt.Errorf("storing keywords: %w", err)
	}
	merged, err := p.Store.Keywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading keywords: %w", err)
	}
	return keywords.Assign(docs, merged), nil
}

func (p *Pipeline) record(docs []types.Document, counts *mentions.Counts) {
	if p.Metrics == nil {
		return
	}
	p.Metrics.DocumentsEnriched.Add(float64(len(docs)))
	totals := make(map[string]int)
	for _, name := range counts.Drugs() {
		totals[name] = counts.Total(name)
	}
	p.Metrics.RecordDrugMentions(totals)
	for _, d := range docs {
		p.Metrics.RecordTopics(d.Topics)
		p.Metrics.KeywordsExtracted.Add(float64(len(d.Keywords)))
		if d.IsClinical {
			p.Metrics.ClinicalPapers.Inc()
		}
	}
}
