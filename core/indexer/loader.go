package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// AnalyzedNewsSource lists news that have a sentiment analysis
type AnalyzedNewsSource interface {
	SelectAnalyzedNews(ctx context.Context) ([]*model.NewsRecord, error)
}

// SummarySource lists every daily summary
type SummarySource interface {
	SelectAllDailySummaries(ctx context.Context) ([]*model.DailySummaryRecord, error)
}

// Loader builds candidate documents from the structured store.
// Every analyzed article and every daily summary becomes one document.
type Loader struct {
	news      AnalyzedNewsSource
	summaries SummarySource
	logger    *slog.Logger
}

// NewLoader creates a loader reading from news and summaries
func NewLoader(news AnalyzedNewsSource, summaries SummarySource, logger *slog.Logger) *Loader {
	return &Loader{
		news:      news,
		summaries: summaries,
		logger:    logger,
	}
}

// Load returns article documents followed by summary documents
func (l *Loader) Load(ctx context.Context) ([]*model.Document, error) {
	news, err := l.news.SelectAnalyzedNews(ctx)
	if err != nil {
		return nil, helper.NewError("select analyzed news", err)
	}

	summaries, err := l.summaries.SelectAllDailySummaries(ctx)
	if err != nil {
		return nil, helper.NewError("select daily summaries", err)
	}

	docs := make([]*model.Document, 0, len(news)+len(summaries))
	for _, n := range news {
		docs = append(docs, ArticleDocument(n))
	}
	for _, s := range summaries {
		docs = append(docs, SummaryDocument(s))
	}

	l.logger.Info("Loaded candidate documents", slog.Int("articles", len(news)), slog.Int("summaries", len(summaries)))

	return docs, nil
}

// ArticleDocument renders an analyzed article with everything a search
// should match on.
func ArticleDocument(n *model.NewsRecord) *model.Document {
	id := n.ID
	date := model.Day(n.PublishedTime)

	var b strings.Builder
	fmt.Fprintf(&b, "Commodity: %s\n", n.Commodity)
	fmt.Fprintf(&b, "Title: %s\n", n.Title)
	fmt.Fprintf(&b, "Published: %s\n", n.PublishedTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Content: %s\n", strings.TrimSpace(n.Content))
	fmt.Fprintf(&b, "Sentiment score: %.1f\n", n.SentimentScore)
	fmt.Fprintf(&b, "Reasoning: %s\n", n.Reasoning)
	fmt.Fprintf(&b, "Keywords: %s", strings.Join(n.Keywords, ", "))

	metadata := model.Metadata{}
	if n.Source != "" {
		metadata["source"] = n.Source
	}

	return &model.Document{
		Type:      model.DocumentTypeArticle,
		NewsID:    &id,
		Date:      &date,
		Commodity: string(n.Commodity),
		Content:   b.String(),
		Metadata:  metadata,
	}
}

// SummaryDocument renders a daily market summary
func SummaryDocument(s *model.DailySummaryRecord) *model.Document {
	date := model.Day(s.Date)

	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", date.Format(model.DateLayout))
	fmt.Fprintf(&b, "Commodity: %s\n", s.Commodity)
	fmt.Fprintf(&b, "Daily sentiment score: %.1f\n", s.SentimentScore)
	fmt.Fprintf(&b, "Daily market summary: %s\n", s.Reasoning)
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(s.Keywords, ", "))
	fmt.Fprintf(&b, "Analyzed news: %d", s.AnalyzedNewsCount)

	return &model.Document{
		Type:      model.DocumentTypeSummary,
		Date:      &date,
		Commodity: string(s.Commodity),
		Content:   b.String(),
		Metadata:  model.Metadata{},
	}
}
