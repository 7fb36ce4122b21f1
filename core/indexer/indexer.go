package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/siherrmann/agrimarket/core/pipeline"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// DefaultBatchSize is the number of chunks embedded and inserted together
const DefaultBatchSize = 500

// ErrIndexerBusy is returned by Sync while another sync is running
var ErrIndexerBusy = errors.New("indexer is already running")

// DocumentStore persists embedded chunks
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *model.Document) (bool, error)
	SelectDocumentKeys(ctx context.Context) ([]string, error)
}

// CandidateSource produces the source documents that should be indexed
type CandidateSource interface {
	Load(ctx context.Context) ([]*model.Document, error)
}

// Indexer adds source documents to the document store exactly once
type Indexer struct {
	store     DocumentStore
	pipeline  *pipeline.Pipeline
	keys      *KeySet
	batchSize int
	running   atomic.Bool
	logger    *slog.Logger
}

// NewIndexer creates an indexer whose key set is seeded with the keys of
// the documents fully stored in store. A batchSize of zero uses DefaultBatchSize.
func NewIndexer(ctx context.Context, store DocumentStore, p *pipeline.Pipeline, batchSize int, logger *slog.Logger) (*Indexer, error) {
	if p == nil || p.Chunker == nil || p.Embedder == nil {
		return nil, helper.NewError("pipeline validation", fmt.Errorf("pipeline needs a chunker and an embedder"))
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	keys, err := store.SelectDocumentKeys(ctx)
	if err != nil {
		return nil, helper.NewError("select document keys", err)
	}

	logger.Info("Initialized indexer", slog.Int("known_documents", len(keys)))

	return &Indexer{
		store:     store,
		pipeline:  p,
		keys:      NewKeySet(keys...),
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// Keys returns the set of indexed dedup keys
func (i *Indexer) Keys() *KeySet {
	return i.keys
}

// IndexNew chunks, embeds and stores the documents whose dedup key is not
// known yet and returns how many source documents were added. Documents
// without a key are skipped. A document only counts as indexed once all
// of its chunks are stored, so a failed run can be repeated safely.
func (i *Indexer) IndexNew(ctx context.Context, docs []*model.Document) (int, error) {
	var chunks []*model.Document
	pending := map[string]int{}

	skipped := 0
	for _, doc := range docs {
		key := doc.DedupKey()
		if key == "" || i.keys.Has(key) {
			skipped++
			continue
		}
		if _, ok := pending[key]; ok {
			skipped++
			continue
		}

		docChunks, err := i.pipeline.Chunk(doc)
		if err != nil {
			return 0, helper.NewError("chunk", err)
		}
		if len(docChunks) == 0 {
			skipped++
			continue
		}
		pending[key] = len(docChunks)
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		i.logger.Debug("No new documents to index", slog.Int("skipped", skipped))
		return 0, nil
	}

	added := 0
	for start := 0; start < len(chunks); start += i.batchSize {
		end := min(start+i.batchSize, len(chunks))
		batch := chunks[start:end]

		err := i.pipeline.Embed(batch)
		if err != nil {
			return added, helper.NewError("embed", err)
		}

		for _, chunk := range batch {
			inserted, err := i.store.InsertDocument(ctx, chunk)
			if err != nil {
				return added, helper.NewError("insert document", err)
			}
			if inserted {
				chunksInsertedTotal.Inc()
			}

			key := chunk.DedupKey()
			pending[key]--
			if pending[key] == 0 && i.keys.Add(key) {
				added++
				documentsIndexedTotal.Inc()
			}
		}

		i.logger.Debug("Indexed batch", slog.Int("chunks", len(batch)), slog.Int("documents_added", added))
	}

	i.logger.Info("Indexed new documents", slog.Int("added", added), slog.Int("skipped", skipped), slog.Int("chunks", len(chunks)))

	return added, nil
}

// Sync loads the candidate documents of source and indexes the new ones.
// Only one sync runs at a time, others return ErrIndexerBusy.
func (i *Indexer) Sync(ctx context.Context, source CandidateSource) (int, error) {
	if !i.running.CompareAndSwap(false, true) {
		indexRunsTotal.WithLabelValues("busy").Inc()
		return 0, ErrIndexerBusy
	}
	defer i.running.Store(false)

	docs, err := source.Load(ctx)
	if err != nil {
		indexRunsTotal.WithLabelValues("error").Inc()
		return 0, helper.NewError("load candidates", err)
	}

	added, err := i.IndexNew(ctx, docs)
	if err != nil {
		indexRunsTotal.WithLabelValues("error").Inc()
		return added, err
	}

	indexRunsTotal.WithLabelValues("ok").Inc()
	return added, nil
}
