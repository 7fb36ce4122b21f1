package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/siherrmann/agrimarket/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockChunkFunc(text string) ([]string, error) {
	if text == "" {
		return nil, errors.New("empty text")
	}
	return strings.Split(text, "|"), nil
}

func mockEmbedFunc(texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if text == "" {
			return nil, errors.New("empty text")
		}
		embeddings[i] = []float32{float32(len(text)), 1, 0}
	}
	return embeddings, nil
}

func TestPipeline(t *testing.T) {
	newsID := int64(3)
	source := &model.Document{
		Type:      model.DocumentTypeArticle,
		NewsID:    &newsID,
		Commodity: "Corn",
		Content:   "first|second",
		Metadata:  model.Metadata{"source": "test"},
	}

	t.Run("Chunk keeps the source identity", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, mockEmbedFunc)

		chunks, err := p.Chunk(source)

		require.NoError(t, err)
		require.Len(t, chunks, 2)
		for i, c := range chunks {
			assert.Equal(t, i, c.ChunkIndex)
			assert.Equal(t, 2, c.ChunkCount, "Expected every chunk to know the chunk count")
			assert.Equal(t, "article_3_Corn", c.DedupKey(), "Expected chunks to share the dedup key")
		}
		assert.Equal(t, "second", chunks[1].Content)
		assert.Equal(t, "first|second", source.Content, "Expected the source document to be left untouched")
	})

	t.Run("Chunk error is wrapped", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, mockEmbedFunc)

		_, err := p.Chunk(&model.Document{Type: model.DocumentTypeArticle, NewsID: &newsID})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty text")
	})

	t.Run("Embed sets one vector per chunk", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, mockEmbedFunc)
		chunks, err := p.Chunk(source)
		require.NoError(t, err)

		err = p.Embed(chunks)

		require.NoError(t, err)
		assert.Equal(t, []float32{5, 1, 0}, chunks[0].Embedding.Slice())
		assert.Equal(t, []float32{6, 1, 0}, chunks[1].Embedding.Slice())
	})

	t.Run("Embed with nothing to do", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, func([]string) ([][]float32, error) {
			t.Fatal("Expected the embedder not to be called")
			return nil, nil
		})

		assert.NoError(t, p.Embed(nil))
	})

	t.Run("Embed detects count mismatch", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, func([]string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		})

		err := p.Embed([]*model.Document{{Content: "a"}, {Content: "b"}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding count mismatch")
	})

	t.Run("Embed query", func(t *testing.T) {
		p := NewPipeline(mockChunkFunc, mockEmbedFunc)

		embedding, err := p.EmbedQuery("corn")
		require.NoError(t, err)
		assert.Equal(t, []float32{4, 1, 0}, embedding)

		_, err = p.EmbedQuery("")
		assert.Error(t, err)
	})
}
