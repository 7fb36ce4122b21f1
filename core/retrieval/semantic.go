package retrieval

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// DocumentStore returns the documents nearest to an embedding
type DocumentStore interface {
	SelectDocumentsBySimilarity(ctx context.Context, embedding []float32, limit int) ([]*model.Document, error)
}

// QueryEmbedFunc embeds a search query
type QueryEmbedFunc func(query string) ([]float32, error)

// SemanticSearcher retrieves documents by meaning, re-ranked for diversity
type SemanticSearcher struct {
	store  DocumentStore
	embed  QueryEmbedFunc
	config model.RetrievalConfig
}

// NewSemanticSearcher creates a searcher over store
func NewSemanticSearcher(store DocumentStore, embed QueryEmbedFunc, config model.RetrievalConfig) *SemanticSearcher {
	return &SemanticSearcher{
		store:  store,
		embed:  embed,
		config: config,
	}
}

// Retrieve returns the k most relevant and mutually diverse documents for
// query. It fetches FetchK candidates by similarity and selects k of them
// with maximal marginal relevance. A k of zero uses the configured TopK.
func (s *SemanticSearcher) Retrieve(ctx context.Context, query string, k int) ([]*model.SearchResult, error) {
	if k <= 0 {
		k = s.config.TopK
	}
	fetchK := s.config.FetchK
	if fetchK < k {
		fetchK = k
	}

	embedding, err := s.embed(query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	candidates, err := s.store.SelectDocumentsBySimilarity(ctx, embedding, fetchK)
	if err != nil {
		return nil, helper.NewError("select documents", err)
	}

	return MaxMarginalRelevance(embedding, candidates, k, s.config.MMRLambda), nil
}

// MaxMarginalRelevance greedily picks k candidates, each maximizing
// lambda*relevance - (1-lambda)*max similarity to the already picked ones.
func MaxMarginalRelevance(query []float32, candidates []*model.Document, k int, lambda float64) []*model.SearchResult {
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		relevance[i] = cosineSimilarity(query, c.Embedding.Slice())
	}

	picked := make([]bool, len(candidates))
	results := make([]*model.SearchResult, 0, k)
	for len(results) < k {
		best, bestScore := -1, math.Inf(-1)
		for i, c := range candidates {
			if picked[i] {
				continue
			}

			redundancy := 0.0
			for _, r := range results {
				sim := cosineSimilarity(c.Embedding.Slice(), r.Document.Embedding.Slice())
				if sim > redundancy {
					redundancy = sim
				}
			}

			score := lambda*relevance[i] - (1-lambda)*redundancy
			if score > bestScore {
				best, bestScore = i, score
			}
		}

		picked[best] = true
		results = append(results, &model.SearchResult{
			Document:  candidates[best],
			Score:     bestScore,
			Relevance: relevance[best],
			Rank:      len(results) + 1,
		})
	}

	return results
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RenderDocuments formats search results as the text payload of an answer
func RenderDocuments(results []*model.SearchResult) string {
	var b strings.Builder
	for _, r := range results {
		doc := r.Document
		fmt.Fprintf(&b, "[%d] %s", r.Rank, doc.Type)
		if doc.Commodity != "" {
			fmt.Fprintf(&b, " | %s", doc.Commodity)
		}
		if doc.Date != nil {
			fmt.Fprintf(&b, " | %s", doc.Date.Format(model.DateLayout))
		}
		fmt.Fprintf(&b, " (relevance %.2f)\n%s\n\n", r.Relevance, strings.TrimSpace(doc.Content))
	}
	return strings.TrimSpace(b.String())
}

// DocumentSpan is the span of the dates of the results, nil when none is dated
func DocumentSpan(results []*model.SearchResult) *model.DateWindow {
	dates := make([]time.Time, 0, len(results))
	for _, r := range results {
		if r.Document.Date != nil {
			dates = append(dates, *r.Document.Date)
		}
	}
	return model.SpanOf(dates)
}
