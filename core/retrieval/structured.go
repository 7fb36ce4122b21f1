package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/siherrmann/agrimarket/core/calculator"
	"github.com/siherrmann/agrimarket/core/window"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	"golang.org/x/sync/errgroup"
)

// SummaryStore reads daily summaries
type SummaryStore interface {
	SelectDailySummaries(ctx context.Context, commodity *model.CommodityID, window model.DateWindow, limit int) ([]*model.DailySummaryRecord, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// NewsStore reads analysed news
type NewsStore interface {
	SelectNewsByImpact(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.NewsRecord, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// PriceStore reads closing prices
type PriceStore interface {
	SelectPrices(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.PriceRecord, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// Section is the outcome of one lookup. A failed section carries its error
// and never affects the other sections.
type Section struct {
	Name      string            `json:"name"`
	Requested *model.DateWindow `json:"requested,omitempty"`
	Found     *model.DateWindow `json:"found,omitempty"` // span of the returned records
	Skipped   bool              `json:"skipped,omitempty"`
	Err       error             `json:"-"`
}

// SummarySection holds daily summaries, newest first
type SummarySection struct {
	Section
	Records []*model.DailySummaryRecord `json:"records"`
}

// NewsSection holds news ranked by impact, then recency
type NewsSection struct {
	Section
	Records []*model.NewsRecord `json:"records"`
}

// PriceSection holds closing prices per commodity, newest first
type PriceSection struct {
	Section
	Records []*model.PriceRecord `json:"records"`
}

// StructuredResult is the combined outcome of the three lookups
type StructuredResult struct {
	Summaries SummarySection `json:"summaries"`
	News      NewsSection    `json:"news"`
	Prices    PriceSection   `json:"prices"`
}

// StructuredRetriever runs the summary, news and price lookups of a query
type StructuredRetriever struct {
	summaries SummaryStore
	news      NewsStore
	prices    PriceStore
	resolver  *window.Resolver
	config    model.RetrievalConfig
	logger    *slog.Logger
}

// NewStructuredRetriever creates a retriever over the given stores
func NewStructuredRetriever(summaries SummaryStore, news NewsStore, prices PriceStore, config model.RetrievalConfig, logger *slog.Logger) *StructuredRetriever {
	return &StructuredRetriever{
		summaries: summaries,
		news:      news,
		prices:    prices,
		resolver:  window.NewResolver(config.WindowDays, summaries, news, prices),
		config:    config,
		logger:    logger,
	}
}

// Resolver returns the window resolver shared by the lookups
func (r *StructuredRetriever) Resolver() *window.Resolver {
	return r.resolver
}

// IsCrushCombination reports whether the query is about the soy complex as a
// whole: soybeans together with meal or oil, or a crush keyword.
func IsCrushCombination(intent model.ParsedIntent) bool {
	if intent.ContainsAny(calculator.CrushKeywords) {
		return true
	}
	return intent.Mentioned(model.Soybean) && (intent.Mentioned(model.SoybeanMeal) || intent.Mentioned(model.SoybeanOil))
}

// Retrieve runs the three lookups concurrently. It never fails: store errors
// are recorded per section as model.ErrStoreUnavailable and a failed section
// does not cancel the others.
func (r *StructuredRetriever) Retrieve(ctx context.Context, intent model.ParsedIntent) *StructuredResult {
	result := &StructuredResult{
		Summaries: SummarySection{Section: Section{Name: "daily summaries"}},
		News:      NewsSection{Section: Section{Name: "news"}},
		Prices:    PriceSection{Section: Section{Name: "prices"}},
	}

	var g errgroup.Group

	g.Go(func() error {
		r.retrieveSummaries(ctx, intent, &result.Summaries)
		return result.Summaries.Err
	})
	g.Go(func() error {
		r.retrieveNews(ctx, intent, &result.News)
		return result.News.Err
	})
	g.Go(func() error {
		r.retrievePrices(ctx, intent, &result.Prices)
		return result.Prices.Err
	})

	if err := g.Wait(); err != nil {
		for _, s := range result.sections() {
			if s.Err != nil {
				r.logger.Warn("Structured lookup failed", slog.String("section", s.Name), slog.String("error", s.Err.Error()))
			}
		}
	}

	return result
}

func (r *StructuredRetriever) retrieveSummaries(ctx context.Context, intent model.ParsedIntent, section *SummarySection) {
	w, ok, err := r.resolver.Resolve(ctx, intent, window.SourceSummaries, intent.Commodity)
	if err != nil {
		section.Err = unavailable(section.Name, err)
		return
	}
	if !ok {
		return
	}
	section.Requested = &w

	records, err := r.summaries.SelectDailySummaries(ctx, intent.Commodity, w, r.config.SummaryLimit)
	if err != nil {
		section.Err = unavailable(section.Name, err)
		return
	}

	section.Records = records
	dates := make([]time.Time, len(records))
	for i, rec := range records {
		dates[i] = rec.Date
	}
	section.Found = model.SpanOf(dates)
}

func (r *StructuredRetriever) retrieveNews(ctx context.Context, intent model.ParsedIntent, section *NewsSection) {
	if intent.Commodity == nil {
		section.Skipped = true
		return
	}

	w, ok, err := r.resolver.Resolve(ctx, intent, window.SourceNews, intent.Commodity)
	if err != nil {
		section.Err = unavailable(section.Name, err)
		return
	}
	if !ok {
		return
	}
	section.Requested = &w

	records, err := r.news.SelectNewsByImpact(ctx, *intent.Commodity, w, r.config.NewsLimit)
	if err != nil {
		section.Err = unavailable(section.Name, err)
		return
	}

	section.Records = records
	dates := make([]time.Time, len(records))
	for i, rec := range records {
		dates[i] = rec.PublishedTime
	}
	section.Found = model.SpanOf(dates)
}

func (r *StructuredRetriever) retrievePrices(ctx context.Context, intent model.ParsedIntent, section *PriceSection) {
	var commodities []model.CommodityID
	switch {
	case IsCrushCombination(intent):
		commodities = model.SoyComplex
	case intent.Commodity != nil:
		commodities = []model.CommodityID{*intent.Commodity}
	default:
		section.Skipped = true
		return
	}

	var requested []time.Time
	for _, commodity := range commodities {
		c := commodity
		w, ok, err := r.resolver.Resolve(ctx, intent, window.SourcePrices, &c)
		if err != nil {
			section.Err = unavailable(section.Name, err)
			return
		}
		if !ok {
			continue
		}
		requested = append(requested, w.Start, w.End)

		records, err := r.prices.SelectPrices(ctx, c, w, r.config.PriceLimit)
		if err != nil {
			section.Err = unavailable(section.Name, err)
			return
		}
		section.Records = append(section.Records, records...)
	}

	section.Requested = model.SpanOf(requested)
	if len(intent.Dates) > 1 {
		w := model.NewPoints(intent.Dates)
		section.Requested = &w
	}

	dates := make([]time.Time, len(section.Records))
	for i, rec := range section.Records {
		dates[i] = rec.Date
	}
	section.Found = model.SpanOf(dates)
}

func unavailable(section string, err error) error {
	return helper.NewError(section, fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err))
}

func (r *StructuredResult) sections() []*Section {
	return []*Section{&r.Summaries.Section, &r.News.Section, &r.Prices.Section}
}

// Empty reports whether no section returned a record
func (r *StructuredResult) Empty() bool {
	return len(r.Summaries.Records) == 0 && len(r.News.Records) == 0 && len(r.Prices.Records) == 0
}

// Unavailable reports whether every attempted section failed
func (r *StructuredResult) Unavailable() bool {
	attempted, failed := 0, 0
	for _, s := range r.sections() {
		if s.Skipped {
			continue
		}
		attempted++
		if s.Err != nil {
			failed++
		}
	}
	return attempted > 0 && failed == attempted
}

// Span is the union of the dates actually returned
func (r *StructuredResult) Span() *model.DateWindow {
	var dates []time.Time
	for _, s := range r.sections() {
		if s.Found != nil {
			dates = append(dates, s.Found.Start, s.Found.End)
		}
	}
	return model.SpanOf(dates)
}

// Render formats the sections as the text payload of an answer
func (r *StructuredResult) Render() string {
	var b strings.Builder

	if len(r.Summaries.Records) > 0 {
		writeHeader(&b, &r.Summaries.Section)
		for _, s := range r.Summaries.Records {
			fmt.Fprintf(&b, "Date: %s\n", s.Date.Format(model.DateLayout))
			fmt.Fprintf(&b, "Commodity: %s\n", s.Commodity)
			fmt.Fprintf(&b, "Sentiment score: %.1f\n", s.SentimentScore)
			fmt.Fprintf(&b, "Market trend: %s\n", s.Reasoning)
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(s.Keywords, ", "))
			fmt.Fprintf(&b, "Analyzed news: %d\n", s.AnalyzedNewsCount)
			b.WriteString("---\n")
		}
	}

	if len(r.News.Records) > 0 {
		writeHeader(&b, &r.News.Section)
		for _, n := range r.News.Records {
			fmt.Fprintf(&b, "Title: %s\n", n.Title)
			fmt.Fprintf(&b, "Published: %s\n", n.PublishedTime.Format("2006-01-02 15:04"))
			fmt.Fprintf(&b, "Commodity: %s\n", n.Commodity)
			fmt.Fprintf(&b, "Sentiment score: %.1f (impact %.1f)\n", n.SentimentScore, n.Impact())
			fmt.Fprintf(&b, "Reasoning: %s\n", n.Reasoning)
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(n.Keywords, ", "))
			b.WriteString("---\n")
		}
	}

	if len(r.Prices.Records) > 0 {
		writeHeader(&b, &r.Prices.Section)
		for _, p := range r.Prices.Records {
			fmt.Fprintf(&b, "Date: %s, Commodity: %s, Close: %s\n", p.Date.Format(model.DateLayout), p.Commodity, p.ClosingPrice)
		}
	}

	for _, s := range r.sections() {
		if s.Err != nil {
			fmt.Fprintf(&b, "\n%s: %s\n", s.Name, model.ErrStoreUnavailable)
		}
	}

	return strings.TrimSpace(b.String())
}

func writeHeader(b *strings.Builder, s *Section) {
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(b, "=== %s ===\n", s.Name)
	if s.Requested != nil && s.Found != nil && s.Requested.String() != s.Found.String() {
		fmt.Fprintf(b, "(requested %s, found %s)\n", s.Requested, s.Found)
	} else if s.Found != nil {
		fmt.Fprintf(b, "(%s)\n", s.Found)
	}
}
