package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/agrimarket/database"
	"github.com/siherrmann/agrimarket/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryDoc(date string, commodity string, content string, embedding []float32) *model.Document {
	d := day(date)
	return &model.Document{
		Type:      model.DocumentTypeSummary,
		Date:      &d,
		Commodity: commodity,
		Content:   content,
		Embedding: pgvector.NewVector(embedding),
	}
}

func TestMaxMarginalRelevance(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []*model.Document{
		summaryDoc("2025-07-28", "Corn", "a", []float32{1, 0, 0}),
		summaryDoc("2025-07-27", "Corn", "a copy", []float32{0.99, 0.01, 0}),
		summaryDoc("2025-07-26", "Corn", "b", []float32{0.7, 0.7, 0}),
	}

	t.Run("Pure relevance keeps similarity order", func(t *testing.T) {
		results := MaxMarginalRelevance(query, candidates, 2, 1)

		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Document.Content)
		assert.Equal(t, "a copy", results[1].Document.Content)
		assert.Equal(t, 1, results[0].Rank)
		assert.Equal(t, 2, results[1].Rank)
	})

	t.Run("Diversity skips near duplicates", func(t *testing.T) {
		results := MaxMarginalRelevance(query, candidates, 2, 0.3)

		require.Len(t, results, 2)
		assert.Equal(t, "a", results[0].Document.Content)
		assert.Equal(t, "b", results[1].Document.Content, "Expected the near duplicate to be ranked below the diverse document")
	})

	t.Run("k larger than candidates", func(t *testing.T) {
		assert.Len(t, MaxMarginalRelevance(query, candidates, 10, 0.5), 3)
		assert.Empty(t, MaxMarginalRelevance(query, nil, 6, 0.5))
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}), "Expected mismatched lengths to score zero")
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestRenderDocuments(t *testing.T) {
	results := MaxMarginalRelevance([]float32{1, 0, 0}, []*model.Document{
		summaryDoc("2025-07-28", "Corn", "Corn sentiment fell on ample supply.", []float32{1, 0, 0}),
	}, 1, 0.5)

	payload := RenderDocuments(results)
	assert.Contains(t, payload, "[1] daily_summary | Corn | 2025-07-28")
	assert.Contains(t, payload, "Corn sentiment fell on ample supply.")

	span := DocumentSpan(results)
	require.NotNil(t, span)
	assert.Equal(t, "2025-07-28", span.String())
}

func TestSemanticSearcher(t *testing.T) {
	db := initDB(t)
	_, err := db.Instance.Exec(`DROP TABLE IF EXISTS documents;`)
	require.NoError(t, err)

	documents, err := database.NewDocumentsDBHandler(db, 3, true)
	require.NoError(t, err)

	ctx := context.Background()
	for _, doc := range []*model.Document{
		summaryDoc("2025-07-28", "Corn", "drought", []float32{1, 0, 0}),
		summaryDoc("2025-07-27", "Corn", "drought again", []float32{0.99, 0.01, 0}),
		summaryDoc("2025-07-26", "Wheat", "harvest", []float32{0, 1, 0}),
		summaryDoc("2025-07-25", "Soybean", "exports", []float32{0.6, 0.6, 0.2}),
	} {
		inserted, err := documents.InsertDocument(ctx, doc)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	embed := func(query string) ([]float32, error) { return []float32{1, 0, 0}, nil }
	config := model.DefaultRetrievalConfig()
	config.MMRLambda = 0.3

	t.Run("Retrieve ranks by relevance and diversity", func(t *testing.T) {
		searcher := NewSemanticSearcher(documents, embed, config)

		results, err := searcher.Retrieve(ctx, "brazil drought", 2)
		require.NoError(t, err)
		require.Len(t, results, 2)

		assert.Equal(t, "drought", results[0].Document.Content)
		assert.NotEqual(t, "drought again", results[1].Document.Content)
		require.NotNil(t, results[0].Document.Date, "Expected identity fields to be restored from metadata")
		assert.Equal(t, "Corn", results[0].Document.Commodity)
	})

	t.Run("Zero k uses TopK", func(t *testing.T) {
		searcher := NewSemanticSearcher(documents, embed, config)

		results, err := searcher.Retrieve(ctx, "anything", 0)
		require.NoError(t, err)
		assert.Len(t, results, 4)
	})

	t.Run("Embedding failure", func(t *testing.T) {
		searcher := NewSemanticSearcher(documents, func(string) ([]float32, error) {
			return nil, errors.New("model not loaded")
		}, config)

		_, err := searcher.Retrieve(ctx, "anything", 2)
		assert.ErrorContains(t, err, "model not loaded")
	})
}
