package agrimarket

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/agrimarket/config"
	"github.com/siherrmann/agrimarket/core/calculator"
	"github.com/siherrmann/agrimarket/core/dispatch"
	"github.com/siherrmann/agrimarket/core/indexer"
	"github.com/siherrmann/agrimarket/core/intent"
	"github.com/siherrmann/agrimarket/core/pipeline"
	"github.com/siherrmann/agrimarket/core/retrieval"
	"github.com/siherrmann/agrimarket/database"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	loadSql "github.com/siherrmann/agrimarket/sql"
)

// Agrimarket wires the database handlers and the answer engine together
type Agrimarket struct {
	DB          *helper.Database
	Commodities *database.CommoditiesDBHandler
	Prices      *database.PricesDBHandler
	Summaries   *database.SummariesDBHandler
	News        *database.NewsDBHandler
	Documents   *database.DocumentsDBHandler

	Parser     *intent.Parser
	Calculator *calculator.Router
	Structured *retrieval.StructuredRetriever
	Dispatcher *dispatch.Dispatcher

	// Set by SetPipeline, nil until then
	Pipeline *pipeline.Pipeline
	Semantic *retrieval.SemanticSearcher
	Indexer  *indexer.Indexer
	Loader   *indexer.Loader

	config    *config.Config
	generator dispatch.Generator
	closeFunc func() error
	log       *slog.Logger
}

// NewAgrimarket connects to the database, creates every handler and the
// answer engine. Document search and indexing need a pipeline, see
// SetPipeline and UseDefaultPipeline.
func NewAgrimarket(dbConfig *helper.DatabaseConfiguration, cfg *config.Config) (*Agrimarket, error) {
	logger := helper.NewLogger(os.Stdout, helper.ParseLogLevel(cfg.Logging.Level))

	db := helper.NewDatabase("agrimarket", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Commodities first, the other market tables reference them
	commodities, err := database.NewCommoditiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create commodities handler", err)
	}
	err = commodities.SeedCommodities(context.Background())
	if err != nil {
		return nil, helper.NewError("seed commodities", err)
	}

	prices, err := database.NewPricesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create prices handler", err)
	}

	summaries, err := database.NewSummariesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create summaries handler", err)
	}

	news, err := database.NewNewsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create news handler", err)
	}

	documents, err := database.NewDocumentsDBHandler(db, cfg.Embedding.Dimension, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	a := &Agrimarket{
		DB:          db,
		Commodities: commodities,
		Prices:      prices,
		Summaries:   summaries,
		News:        news,
		Documents:   documents,
		Parser:      intent.NewParser(),
		Calculator:  calculator.NewRouter(prices),
		Structured:  retrieval.NewStructuredRetriever(summaries, news, prices, cfg.Retrieval, logger),
		Loader:      indexer.NewLoader(news, summaries, logger),
		config:      cfg,
		log:         logger,
	}
	a.buildDispatcher()

	return a, nil
}

// Logger returns the logger shared by all components
func (a *Agrimarket) Logger() *slog.Logger {
	return a.log
}

// Close releases the embedding session and the database connection
func (a *Agrimarket) Close() error {
	if a.closeFunc != nil {
		err := a.closeFunc()
		if err != nil {
			return helper.NewError("close pipeline", err)
		}
		a.closeFunc = nil
	}
	if a.DB != nil && a.DB.Instance != nil {
		return a.DB.Close()
	}
	return nil
}

// SetPipeline sets the chunking and embedding pipeline and enables
// document search and incremental indexing
func (a *Agrimarket) SetPipeline(ctx context.Context, p *pipeline.Pipeline) error {
	idx, err := indexer.NewIndexer(ctx, a.Documents, p, a.config.Indexer.BatchSize, a.log)
	if err != nil {
		return helper.NewError("create indexer", err)
	}

	a.Pipeline = p
	a.Indexer = idx
	a.Semantic = retrieval.NewSemanticSearcher(a.Documents, p.EmbedQuery, a.config.Retrieval)
	a.buildDispatcher()
	return nil
}

// UseDefaultPipeline sets up the recursive chunker and the multilingual
// embedder named in the configuration
func (a *Agrimarket) UseDefaultPipeline(ctx context.Context) error {
	embedder, closeFunc, err := pipeline.DefaultEmbedder(a.config.Embedding.Model)
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	chunker := pipeline.RecursiveChunker(a.config.Indexer.ChunkSize, a.config.Indexer.ChunkOverlap)

	err = a.SetPipeline(ctx, pipeline.NewPipeline(chunker, embedder))
	if err != nil {
		_ = closeFunc()
		return err
	}
	a.closeFunc = closeFunc
	return nil
}

// SetGenerator sets the generator every successful answer is passed through
func (a *Agrimarket) SetGenerator(g dispatch.Generator) {
	a.generator = g
	a.buildDispatcher()
}

func (a *Agrimarket) buildDispatcher() {
	var semantic dispatch.SemanticSource
	if a.Semantic != nil {
		semantic = a.Semantic
	}
	a.Dispatcher = dispatch.NewDispatcher(a.Parser, a.Calculator, a.Structured, semantic, a.log)
	if a.generator != nil {
		a.Dispatcher.WithGenerator(a.generator)
	}
}

// Ask answers a free text question about the commodity markets
func (a *Agrimarket) Ask(ctx context.Context, text string) model.Answer {
	return a.Dispatcher.Answer(ctx, text)
}

// IndexNew adds the articles and daily summaries that are not indexed yet
// to the document store and returns how many were added
func (a *Agrimarket) IndexNew(ctx context.Context) (int, error) {
	if a.Indexer == nil {
		return 0, helper.NewError("index new documents", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	return a.Indexer.Sync(ctx, a.Loader)
}

// ChangeIndexType changes the vector index of the document store between HNSW and IVFFlat
func (a *Agrimarket) ChangeIndexType(ctx context.Context, indexType string, params database.IndexParams) error {
	return a.Documents.ChangeIndexType(ctx, indexType, params)
}
