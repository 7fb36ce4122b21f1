package model

// RetrievalConfig holds the caps and windows used by retrieval
type RetrievalConfig struct {
	// Structured retrieval caps
	SummaryLimit int `json:"summary_limit" mapstructure:"summary_limit"`
	NewsLimit    int `json:"news_limit" mapstructure:"news_limit"`
	PriceLimit   int `json:"price_limit" mapstructure:"price_limit"`

	// Days in a relative window, inclusive of the anchor date
	WindowDays int `json:"window_days" mapstructure:"window_days"`

	// Semantic search parameters
	TopK      int     `json:"top_k" mapstructure:"top_k"`
	FetchK    int     `json:"fetch_k" mapstructure:"fetch_k"`       // candidates before diversity ranking
	MMRLambda float64 `json:"mmr_lambda" mapstructure:"mmr_lambda"` // 1 = pure relevance, 0 = pure diversity
}

// DefaultRetrievalConfig returns the default retrieval configuration
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SummaryLimit: 10,
		NewsLimit:    10,
		PriceLimit:   5,
		WindowDays:   7,
		TopK:         6,
		FetchK:       24,
		MMRLambda:    0.5,
	}
}
