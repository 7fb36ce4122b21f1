package model

// SearchResult is a chunk returned by semantic search
type SearchResult struct {
	Document  *Document `json:"document"`
	Score     float64   `json:"score"`     // MMR score at selection time
	Relevance float64   `json:"relevance"` // cosine similarity to the query
	Rank      int       `json:"rank"`
}
