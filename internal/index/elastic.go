// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pdiddy/cord-engine/internal/httputil"
	"github.com/pdiddy/cord-engine/pkg/types"
)

const defaultBatchSize = 200

// ElasticPublisher sends records to an Elasticsearch cluster through the
// bulk API, one throttled bulk flush per batch.
type ElasticPublisher struct {
	DocumentIndex  string
	TreatmentIndex string
	BatchSize      int

	es      *elasticsearch.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewElasticPublisher returns a publisher configured from cfg. apiKey may
// be empty for unsecured clusters.
func NewElasticPublisher(cfg types.IndexConfig, apiKey string, log zerolog.Logger) (*ElasticPublisher, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	esCfg := elasticsearch.Config{
		Addresses:     []string{strings.TrimRight(cfg.URL, "/")},
		APIKey:        apiKey,
		Transport:     transport,
		RetryOnStatus: httputil.RetryStatuses,
		MaxRetries:    cfg.MaxRetries,
		DisableRetry:  cfg.MaxRetries <= 0,
		RetryBackoff: func(attempt int) time.Duration {
			return httputil.Exponential(max(attempt-1, 0))
		},
	}
	if cfg.UserAgent != "" {
		esCfg.Header = http.Header{"User-Agent": []string{cfg.UserAgent}}
	}
	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	p := &ElasticPublisher{
		DocumentIndex:  cfg.DocumentIndex,
		TreatmentIndex: cfg.TreatmentIndex,
		BatchSize:      cfg.BatchSize,
		es:             es,
		log:            log,
	}
	p.SetRate(cfg.RequestsPerSecond)
	return p, nil
}

// SetRate limits bulk flushes to rps per second. Zero or less disables
// the limit.
func (p *ElasticPublisher) SetRate(rps float64) {
	if rps <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

type bulkItem struct {
	id     string
	record map[string]any
}

// PublishDocuments indexes docs by cord_uid. Untitled documents fail the
// whole call before anything is sent.
func (p *ElasticPublisher) PublishDocuments(ctx context.Context, docs []types.Document) (int, error) {
	if err := checkTitles(docs); err != nil {
		return 0, err
	}
	items := make([]bulkItem, len(docs))
	for i, d := range docs {
		items[i] = bulkItem{id: d.ID, record: DocumentRecord(d)}
	}
	return p.publish(ctx, p.DocumentIndex, items)
}

// PublishTreatments indexes treatments by types.Treatment.Key.
func (p *ElasticPublisher) PublishTreatments(ctx context.Context, treatments []types.Treatment) (int, error) {
	items := make([]bulkItem, len(treatments))
	for i, t := range treatments {
		items[i] = bulkItem{id: t.Key(), record: TreatmentRecord(t)}
	}
	return p.publish(ctx, p.TreatmentIndex, items)
}

func (p *ElasticPublisher) publish(ctx context.Context, index string, items []bulkItem) (int, error) {
	size := p.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	if p.limiter == nil {
		p.SetRate(0)
	}

	sent := 0
	for start := 0; start < len(items); start += size {
		batch := items[start:min(start+size, len(items))]
		if err := p.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		if err := p.bulk(ctx, index, batch); err != nil {
			return sent, fmt.Errorf("bulk request at offset %d: %w", start, err)
		}
		sent += len(batch)
		p.log.Debug().Str("index", index).Int("sent", sent).Int("total", len(items)).Msg("submitted batch")
	}
	return sent, nil
}

// bulk indexes one batch with a single-worker indexer that flushes on
// Close, so every batch becomes exactly one _bulk request.
func (p *ElasticPublisher) bulk(ctx context.Context, index string, batch []bulkItem) error {
	var (
		mu       sync.Mutex
		flushErr error
		rejected []string
	)
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     p.es,
		NumWorkers: 1,
		Refresh:    "true",
		OnError: func(_ context.Context, err error) {
			mu.Lock()
			defer mu.Unlock()
			if flushErr == nil {
				flushErr = err
			}
		},
	})
	if err != nil {
		return fmt.Errorf("creating bulk indexer: %w", err)
	}

	onFailure := func(_ context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
		if err != nil {
			// Transport failures also reach OnError.
			return
		}
		mu.Lock()
		defer mu.Unlock()
		rejected = append(rejected, fmt.Sprintf("%s (%s: %s)", item.DocumentID, res.Error.Type, res.Error.Reason))
	}

	var addErr error
	for _, it := range batch {
		body, err := json.Marshal(it.record)
		if err != nil {
			addErr = fmt.Errorf("encoding %s: %w", it.id, err)
			break
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			Index:      index,
			DocumentID: it.id,
			Body:       bytes.NewReader(body),
			OnFailure:  onFailure,
		})
		if err != nil {
			addErr = fmt.Errorf("adding %s: %w", it.id, err)
			break
		}
	}
	closeErr := bi.Close(ctx)

	mu.Lock()
	defer mu.Unlock()
	switch {
	case addErr != nil:
		return addErr
	case flushErr != nil:
		return flushErr
	case closeErr != nil:
		return closeErr
	case len(rejected) > 0:
		return fmt.Errorf("%d items rejected: %s", len(rejected), strings.Join(rejected, "; "))
	}
	if stats := bi.Stats(); stats.NumFailed > 0 {
		return errors.New("bulk indexer reported failed items")
	}
	return nil
}
