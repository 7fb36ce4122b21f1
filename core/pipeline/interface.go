package pipeline

import (
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/agrimarket/model"
)

// ChunkFunc is a function that splits text into ordered chunks
type ChunkFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates embeddings for a batch of texts.
// The result holds one embedding per text, in order.
type EmbedFunc func(texts []string) ([][]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Chunk splits a source document into chunk documents sharing its identity.
// The chunks are not embedded yet.
func (p *Pipeline) Chunk(doc *model.Document) ([]*model.Document, error) {
	texts, err := p.Chunker(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document %s: %w", doc.DedupKey(), err)
	}

	chunks := make([]*model.Document, 0, len(texts))
	for i, text := range texts {
		chunk := *doc
		chunk.Content = text
		chunk.ChunkIndex = i
		chunk.ChunkCount = len(texts)
		chunks = append(chunks, &chunk)
	}
	return chunks, nil
}

// Embed sets the embedding of every chunk with a single embedder call
func (p *Pipeline) Embed(chunks []*model.Document) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embeddings, err := p.Embedder(texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	for i, c := range chunks {
		c.Embedding = pgvector.NewVector(embeddings[i])
	}
	return nil
}

// EmbedQuery embeds a single search query
func (p *Pipeline) EmbedQuery(query string) ([]float32, error) {
	embeddings, err := p.Embedder([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("no embedding generated")
	}
	return embeddings[0], nil
}
